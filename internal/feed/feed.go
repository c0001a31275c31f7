// Package feed serves the public, unauthenticated citation feed consumed by
// the browser extension and the public viewer. Lookups key on the YouTube
// video id, not the internal one, because the extension only knows what is
// in the page URL.
package feed

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/referer/referer/internal/attribution"
	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/httputil"
	"github.com/referer/referer/internal/timestamp"
	"github.com/referer/referer/internal/youtube"
)

type Handler struct {
	db      database.DBTX
	baseURL string
}

func NewHandler(db database.DBTX, baseURL string) *Handler {
	return &Handler{db: db, baseURL: baseURL}
}

type feedVideo struct {
	YouTubeID string  `json:"youtubeId"`
	Title     string  `json:"title"`
	ChannelID *string `json:"channelId"`
}

type feedCreator struct {
	ChannelID string  `json:"channelId"`
	Name      *string `json:"name"`
	Avatar    *string `json:"avatar"`
}

type feedSource struct {
	ID               string           `json:"id"`
	TimestampSeconds int              `json:"timestampSeconds"`
	Timestamp        string           `json:"timestamp"`
	Claim            string           `json:"claim"`
	SourceText       *string          `json:"sourceText"`
	SourceURL        string           `json:"sourceUrl"`
	Attribution      attribution.Kind `json:"attribution"`
	IsCreatorSource  bool             `json:"isCreatorSource"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type feedResponse struct {
	Video   *feedVideo   `json:"video"`
	Creator *feedCreator `json:"creator"`
	Sources []feedSource `json:"sources"`
	Count   int          `json:"count"`
}

// corsHeaders marks the feed world-readable. The extension's content script
// runs on youtube.com, so a wildcard origin is the point, not an oversight.
func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// Get returns everything known about one YouTube video. An unregistered
// video is an empty feed with a 200, never a 404; the extension treats the
// two cases identically.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)

	youtubeID := chi.URLParam(r, "youtubeID")
	if !youtube.IsValidID(youtubeID) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid YouTube video id")
		return
	}

	var videoID, ownerID, title string
	var channelID *string
	err := h.db.QueryRow(r.Context(),
		`SELECT id, user_id, title, youtube_channel_id FROM videos WHERE youtube_id = $1`,
		youtubeID,
	).Scan(&videoID, &ownerID, &title, &channelID)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteJSON(w, http.StatusOK, feedResponse{Sources: []feedSource{}})
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	creator, err := h.loadCreator(r, ownerID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	ownership := attribution.VideoOwnership{OwnerUserID: ownerID, ChannelID: channelID}
	var verified *attribution.VerifiedChannel
	if creator != nil {
		verified = &attribution.VerifiedChannel{ChannelID: creator.ChannelID}
	}

	sources, err := h.loadSources(r, videoID, ownership, verified)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feedResponse{
		Video:   &feedVideo{YouTubeID: youtubeID, Title: title, ChannelID: channelID},
		Creator: creator,
		Sources: sources,
		Count:   len(sources),
	})
}

func (h *Handler) loadCreator(r *http.Request, ownerID string) (*feedCreator, error) {
	var c feedCreator
	err := h.db.QueryRow(r.Context(),
		`SELECT youtube_channel_id, youtube_channel_name, youtube_channel_avatar
		 FROM creators WHERE user_id = $1`,
		ownerID,
	).Scan(&c.ChannelID, &c.Name, &c.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (h *Handler) loadSources(r *http.Request, videoID string, ownership attribution.VideoOwnership, verified *attribution.VerifiedChannel) ([]feedSource, error) {
	rows, err := h.db.Query(r.Context(),
		`SELECT id, timestamp_seconds, claim, source_text, source_url, contributed_by, created_at
		 FROM sources
		 WHERE video_id = $1
		 ORDER BY timestamp_seconds ASC, created_at ASC, id ASC`,
		videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []feedSource{}
	for rows.Next() {
		var s feedSource
		var contributedBy *string
		if err := rows.Scan(&s.ID, &s.TimestampSeconds, &s.Claim, &s.SourceText, &s.SourceURL, &contributedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Timestamp = timestamp.Format(s.TimestampSeconds)
		s.Attribution = attribution.Resolve(contributedBy, ownership, verified)
		s.IsCreatorSource = s.Attribution == attribution.Creator
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
