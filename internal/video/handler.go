// Package video implements video registration and the per-video citation
// store. Videos are YouTube references, not uploads: registering one records
// its id, metadata fetched from oEmbed, and optionally a mirrored thumbnail.
package video

import (
	"context"
	"fmt"
	"time"

	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/youtube"
)

// VideoMetadata resolves public metadata for a YouTube video.
type VideoMetadata interface {
	LookupVideo(ctx context.Context, videoID string) (*youtube.VideoInfo, error)
	ResolveChannelID(ctx context.Context, videoID string) (string, error)
}

// ThumbnailStore mirrors YouTube thumbnails into object storage so the
// dashboard keeps working when YouTube rotates or removes them.
type ThumbnailStore interface {
	MirrorFromURL(ctx context.Context, key string, srcURL string) error
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type Handler struct {
	db      database.DBTX
	yt      VideoMetadata
	baseURL string
	thumbs  ThumbnailStore
}

func NewHandler(db database.DBTX, yt VideoMetadata, baseURL string) *Handler {
	return &Handler{db: db, yt: yt, baseURL: baseURL}
}

// SetThumbnailStore enables thumbnail mirroring. Without it videos keep the
// remote i.ytimg.com URL only.
func (h *Handler) SetThumbnailStore(s ThumbnailStore) {
	h.thumbs = s
}

func thumbnailKey(youtubeID string) string {
	return fmt.Sprintf("thumbnails/%s.jpg", youtubeID)
}
