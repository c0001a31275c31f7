package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/referer/referer/internal/attribution"
	"github.com/referer/referer/internal/auth"
	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/httputil"
	"github.com/referer/referer/internal/timestamp"
	"github.com/referer/referer/internal/validate"
)

type createSourceRequest struct {
	// Timestamp is "SS", "M:SS", or "H:MM:SS". TimestampSeconds is used when
	// Timestamp is empty.
	Timestamp        string  `json:"timestamp,omitempty"`
	TimestampSeconds *int    `json:"timestampSeconds,omitempty"`
	Claim            string  `json:"claim"`
	SourceText       *string `json:"sourceText,omitempty"`
	SourceURL        string  `json:"sourceUrl"`
}

type sourceResponse struct {
	ID               string           `json:"id"`
	VideoID          string           `json:"videoId"`
	TimestampSeconds int              `json:"timestampSeconds"`
	Timestamp        string           `json:"timestamp"`
	Claim            string           `json:"claim"`
	SourceText       *string          `json:"sourceText"`
	SourceURL        string           `json:"sourceUrl"`
	ContributedBy    *string          `json:"contributedBy"`
	Attribution      attribution.Kind `json:"attribution"`
	IsCreatorSource  bool             `json:"isCreatorSource"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// CreateSource attaches a citation to a registered video. Any authenticated
// user may contribute to any video; attribution sorts out whose citations
// count as the creator's.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var req createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var offset int
	switch {
	case req.Timestamp != "":
		parsed, err := timestamp.Parse(req.Timestamp)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "timestamp must be SS, M:SS, or H:MM:SS")
			return
		}
		offset = parsed
	case req.TimestampSeconds != nil:
		offset = *req.TimestampSeconds
	default:
		httputil.WriteError(w, http.StatusBadRequest, "a timestamp is required")
		return
	}
	if offset < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "timestamp must not be negative")
		return
	}

	if req.Claim == "" {
		httputil.WriteError(w, http.StatusBadRequest, "claim is required")
		return
	}
	if msg := validate.Claim(req.Claim); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if req.SourceText != nil {
		if msg := validate.SourceText(*req.SourceText); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
	}
	if msg := validate.SourceURL(req.SourceURL); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	video, err := h.loadOwnership(r.Context(), videoID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	var sourceID string
	var createdAt time.Time
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO sources (video_id, timestamp_seconds, claim, source_text, source_url, contributed_by)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		videoID, offset, req.Claim, req.SourceText, req.SourceURL, userID,
	).Scan(&sourceID, &createdAt)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create source")
		return
	}

	creator, err := lookupCreatorChannel(r.Context(), h.db, video.OwnerUserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create source")
		return
	}

	kind := attribution.Resolve(&userID, video, creator)
	httputil.WriteJSON(w, http.StatusCreated, sourceResponse{
		ID:               sourceID,
		VideoID:          videoID,
		TimestampSeconds: offset,
		Timestamp:        timestamp.Format(offset),
		Claim:            req.Claim,
		SourceText:       req.SourceText,
		SourceURL:        req.SourceURL,
		ContributedBy:    &userID,
		Attribution:      kind,
		IsCreatorSource:  kind == attribution.Creator,
		CreatedAt:        createdAt,
	})
}

// ListSources returns a video's citations ascending by offset. Ties on the
// offset keep insertion order, with the id as a final stable key.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	video, err := h.loadOwnership(r.Context(), videoID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	creator, err := lookupCreatorChannel(r.Context(), h.db, video.OwnerUserID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}

	sources, err := loadSources(r.Context(), h.db, videoID, video, creator)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sources": sources, "count": len(sources)})
}

// DeleteSource removes a citation. Allowed for the video's owner and for the
// user who contributed it.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sourceID := chi.URLParam(r, "sourceID")

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM sources s USING videos v
		 WHERE s.id = $1 AND v.id = s.video_id AND (v.user_id = $2 OR s.contributed_by = $2)`,
		sourceID, userID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "source not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadOwnership(ctx context.Context, videoID string) (attribution.VideoOwnership, error) {
	var v attribution.VideoOwnership
	err := h.db.QueryRow(ctx,
		`SELECT user_id, youtube_channel_id FROM videos WHERE id = $1`, videoID,
	).Scan(&v.OwnerUserID, &v.ChannelID)
	return v, err
}

// lookupCreatorChannel fetches the verified channel of a video's owner.
// Absence is the normal case, not an error.
func lookupCreatorChannel(ctx context.Context, db database.DBTX, ownerUserID string) (*attribution.VerifiedChannel, error) {
	var channelID string
	err := db.QueryRow(ctx,
		`SELECT youtube_channel_id FROM creators WHERE user_id = $1`, ownerUserID,
	).Scan(&channelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attribution.VerifiedChannel{ChannelID: channelID}, nil
}

func loadSources(ctx context.Context, db database.DBTX, videoID string, video attribution.VideoOwnership, creator *attribution.VerifiedChannel) ([]sourceResponse, error) {
	rows, err := db.Query(ctx,
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

	sources := []sourceResponse{}
	for rows.Next() {
		s := sourceResponse{VideoID: videoID}
		if err := rows.Scan(&s.ID, &s.TimestampSeconds, &s.Claim, &s.SourceText, &s.SourceURL, &s.ContributedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Timestamp = timestamp.Format(s.TimestampSeconds)
		s.Attribution = attribution.Resolve(s.ContributedBy, video, creator)
		s.IsCreatorSource = s.Attribution == attribution.Creator
		sources = append(sources, s)
	}
	return sources, rows.Err()
}
