package video

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/referer/referer/internal/auth"
	"github.com/referer/referer/internal/httputil"
	"github.com/referer/referer/internal/validate"
	"github.com/referer/referer/internal/youtube"
)

const uniqueViolation = "23505"

type registerRequest struct {
	URL       string `json:"url,omitempty"`
	YouTubeID string `json:"youtubeId,omitempty"`
	Title     string `json:"title,omitempty"`
}

type videoResponse struct {
	ID           string    `json:"id"`
	YouTubeID    string    `json:"youtubeId"`
	Title        string    `json:"title"`
	ChannelID    *string   `json:"channelId"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	SourceCount  int       `json:"sourceCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Register records a YouTube video for the caller. The id comes either from
// an explicit youtubeId or from any recognized YouTube URL form. Title and
// channel id are autofilled from YouTube when possible; both lookups are
// best-effort and never fail the registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	youtubeID := req.YouTubeID
	if youtubeID == "" && req.URL != "" {
		if id, ok := youtube.ExtractVideoID(req.URL); ok {
			youtubeID = id
		}
	}
	if !youtube.IsValidID(youtubeID) {
		httputil.WriteError(w, http.StatusBadRequest, "a valid YouTube URL or video id is required")
		return
	}

	title := req.Title
	var channelID *string

	if info, err := h.yt.LookupVideo(r.Context(), youtubeID); err == nil {
		if title == "" {
			title = info.Title
		}
	} else {
		slog.Warn("video metadata lookup failed", "youtubeId", youtubeID, "error", err)
	}
	if title == "" {
		title = "Untitled Video"
	}
	if msg := validate.Title(title); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	if id, err := h.yt.ResolveChannelID(r.Context(), youtubeID); err == nil && id != "" {
		channelID = &id
	}

	thumbnailURL := youtube.ThumbnailURL(youtubeID)
	var thumbKey *string
	if h.thumbs != nil {
		key := thumbnailKey(youtubeID)
		if err := h.thumbs.MirrorFromURL(r.Context(), key, thumbnailURL); err == nil {
			thumbKey = &key
		} else {
			slog.Warn("thumbnail mirror failed", "youtubeId", youtubeID, "error", err)
		}
	}

	var videoID string
	var createdAt time.Time
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO videos (user_id, youtube_id, title, youtube_channel_id, thumbnail_url, thumbnail_key)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		userID, youtubeID, title, channelID, thumbnailURL, thumbKey,
	).Scan(&videoID, &createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			httputil.WriteError(w, http.StatusConflict, "video is already registered")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to register video")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, videoResponse{
		ID:           videoID,
		YouTubeID:    youtubeID,
		Title:        title,
		ChannelID:    channelID,
		ThumbnailURL: h.resolveThumbnail(r.Context(), thumbnailURL, thumbKey),
		CreatedAt:    createdAt,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := h.db.Query(r.Context(),
		`SELECT v.id, v.youtube_id, v.title, v.youtube_channel_id, v.thumbnail_url, v.thumbnail_key, v.created_at,
		        COUNT(s.id) AS source_count
		 FROM videos v
		 LEFT JOIN sources s ON s.video_id = v.id
		 WHERE v.user_id = $1
		 GROUP BY v.id
		 ORDER BY v.created_at DESC`,
		userID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	defer rows.Close()

	videos := []videoResponse{}
	for rows.Next() {
		var v videoResponse
		var thumbURL, thumbKey *string
		if err := rows.Scan(&v.ID, &v.YouTubeID, &v.Title, &v.ChannelID, &thumbURL, &thumbKey, &v.CreatedAt, &v.SourceCount); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
			return
		}
		remote := youtube.ThumbnailURL(v.YouTubeID)
		if thumbURL != nil {
			remote = *thumbURL
		}
		v.ThumbnailURL = h.resolveThumbnail(r.Context(), remote, thumbKey)
		videos = append(videos, v)
	}
	if rows.Err() != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var v videoResponse
	var thumbURL, thumbKey *string
	err := h.db.QueryRow(r.Context(),
		`SELECT v.id, v.youtube_id, v.title, v.youtube_channel_id, v.thumbnail_url, v.thumbnail_key, v.created_at,
		        (SELECT COUNT(*) FROM sources s WHERE s.video_id = v.id) AS source_count
		 FROM videos v
		 WHERE v.id = $1 AND v.user_id = $2`,
		videoID, userID,
	).Scan(&v.ID, &v.YouTubeID, &v.Title, &v.ChannelID, &thumbURL, &thumbKey, &v.CreatedAt, &v.SourceCount)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	remote := youtube.ThumbnailURL(v.YouTubeID)
	if thumbURL != nil {
		remote = *thumbURL
	}
	v.ThumbnailURL = h.resolveThumbnail(r.Context(), remote, thumbKey)

	httputil.WriteJSON(w, http.StatusOK, v)
}

// Delete removes a video and its sources. The mirrored thumbnail is removed
// best-effort after the row is gone.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var thumbKey *string
	err := h.db.QueryRow(r.Context(),
		`DELETE FROM videos WHERE id = $1 AND user_id = $2 RETURNING thumbnail_key`,
		videoID, userID,
	).Scan(&thumbKey)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	if h.thumbs != nil && thumbKey != nil {
		if err := h.thumbs.DeleteObject(r.Context(), *thumbKey); err != nil {
			slog.Warn("thumbnail delete failed", "videoId", videoID, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// BackfillChannel resolves the publishing channel for a video registered
// before channel resolution existed, or one whose resolution failed. Returns
// the channel id, which stays null when YouTube still does not reveal it.
func (h *Handler) BackfillChannel(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var youtubeID string
	var channelID *string
	err := h.db.QueryRow(r.Context(),
		`SELECT youtube_id, youtube_channel_id FROM videos WHERE id = $1 AND user_id = $2`,
		videoID, userID,
	).Scan(&youtubeID, &channelID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	if channelID == nil {
		resolved, err := h.yt.ResolveChannelID(r.Context(), youtubeID)
		if err != nil {
			httputil.WriteError(w, http.StatusBadGateway, "channel lookup failed")
			return
		}
		if resolved != "" {
			if _, err := h.db.Exec(r.Context(),
				`UPDATE videos SET youtube_channel_id = $1, updated_at = now() WHERE id = $2`,
				resolved, videoID,
			); err != nil {
				httputil.WriteError(w, http.StatusInternalServerError, "failed to save channel id")
				return
			}
			channelID = &resolved
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]*string{"channelId": channelID})
}

func (h *Handler) resolveThumbnail(ctx context.Context, remoteURL string, key *string) string {
	if h.thumbs == nil || key == nil {
		return remoteURL
	}
	signed, err := h.thumbs.GenerateDownloadURL(ctx, *key, 1*time.Hour)
	if err != nil {
		return remoteURL
	}
	return signed
}
