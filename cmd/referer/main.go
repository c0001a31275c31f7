package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/server"
	"github.com/referer/referer/internal/storage"
	"github.com/referer/referer/internal/video"
	"github.com/referer/referer/internal/youtube"
)

func main() {
	port := getEnv("PORT", "8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	// Thumbnail mirroring is optional; without S3 credentials videos keep
	// their remote YouTube thumbnail URLs.
	var thumbnails video.ThumbnailStore
	if os.Getenv("S3_ACCESS_KEY") != "" {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         getEnv("S3_BUCKET", "referer"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("storage bucket check failed: %v", err)
		}
		thumbnails = store
		log.Println("thumbnail mirror ready")
	} else {
		log.Println("no S3 credentials, thumbnail mirroring disabled")
	}

	ytClient := youtube.NewClient()

	srv := server.New(server.Config{
		DB:               db.Pool,
		Pinger:           db,
		YouTube:          ytClient,
		Thumbnails:       thumbnails,
		JWTSecret:        jwtSecret,
		BaseURL:          baseURL,
		S3PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	backfillInterval := time.Duration(getEnvInt64("CHANNEL_BACKFILL_INTERVAL_SECONDS", 30)) * time.Second
	video.StartChannelBackfillWorker(workerCtx, db.Pool, ytClient, backfillInterval)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("referer listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
