package video

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/referer/referer/internal/auth"
	"github.com/referer/referer/internal/export"
	"github.com/referer/referer/internal/httputil"
)

type exportResponse struct {
	Description string `json:"description"`
	Links       string `json:"links"`
}

// Export renders a video's citations as paste-ready text for a YouTube
// description, in both the full block form and the bare link list.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "id")

	var youtubeID string
	err := h.db.QueryRow(r.Context(),
		`SELECT youtube_id FROM videos WHERE id = $1 AND user_id = $2`,
		videoID, userID,
	).Scan(&youtubeID)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "video not found")
		return
	}

	rows, err := h.db.Query(r.Context(),
		`SELECT timestamp_seconds, claim, source_url FROM sources
		 WHERE video_id = $1
		 ORDER BY timestamp_seconds ASC, created_at ASC, id ASC`,
		videoID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load sources")
		return
	}
	defer rows.Close()

	var citations []export.Citation
	for rows.Next() {
		var c export.Citation
		if err := rows.Scan(&c.Offset, &c.Claim, &c.SourceURL); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load sources")
			return
		}
		citations = append(citations, c)
	}
	if rows.Err() != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load sources")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, exportResponse{
		Description: export.Description(youtubeID, citations, h.baseURL),
		Links:       export.SimpleLinks(youtubeID, citations, h.baseURL),
	})
}
