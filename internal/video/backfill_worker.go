package video

import (
	"context"
	"log"
	"time"

	"github.com/referer/referer/internal/database"
)

// processNextBackfill resolves the publishing channel for one video that has
// none recorded. Touching updated_at on every attempt rotates through the
// backlog instead of hammering a video YouTube refuses to resolve.
func processNextBackfill(ctx context.Context, db database.DBTX, yt VideoMetadata) {
	var videoID, youtubeID string
	err := db.QueryRow(ctx,
		`UPDATE videos SET updated_at = now()
		 WHERE id = (
		     SELECT id FROM videos
		     WHERE youtube_channel_id IS NULL
		     ORDER BY updated_at ASC LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, youtube_id`,
	).Scan(&videoID, &youtubeID)
	if err != nil {
		return
	}

	channelID, err := yt.ResolveChannelID(ctx, youtubeID)
	if err != nil {
		log.Printf("backfill-worker: channel lookup failed for video %s: %v", videoID, err)
		return
	}
	if channelID == "" {
		return
	}

	if _, err := db.Exec(ctx,
		`UPDATE videos SET youtube_channel_id = $1, updated_at = now() WHERE id = $2`,
		channelID, videoID,
	); err != nil {
		log.Printf("backfill-worker: failed to save channel for video %s: %v", videoID, err)
	}
}

// StartChannelBackfillWorker periodically resolves publishing channels for
// videos registered without one.
func StartChannelBackfillWorker(ctx context.Context, db database.DBTX, yt VideoMetadata, interval time.Duration) {
	go func() {
		log.Println("backfill-worker: started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("backfill-worker: shutting down")
				return
			case <-ticker.C:
				processNextBackfill(ctx, db, yt)
			}
		}
	}()
}
