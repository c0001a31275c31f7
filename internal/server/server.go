package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/referer/referer/internal/auth"
	"github.com/referer/referer/internal/creator"
	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/feed"
	"github.com/referer/referer/internal/ratelimit"
	"github.com/referer/referer/internal/video"
	"github.com/referer/referer/internal/youtube"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	YouTube          *youtube.Client
	Thumbnails       video.ThumbnailStore
	JWTSecret        string
	BaseURL          string
	S3PublicEndpoint string
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	authHandler    *auth.Handler
	videoHandler   *video.Handler
	creatorHandler *creator.Handler
	feedHandler    *feed.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{router: r, pinger: cfg.Pinger}

	if cfg.DB != nil {
		jwtSecret := cfg.JWTSecret
		if jwtSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		yt := cfg.YouTube
		if yt == nil {
			yt = youtube.NewClient()
		}

		secureCookies := strings.HasPrefix(baseURL, "https://")
		s.authHandler = auth.NewHandler(cfg.DB, jwtSecret, secureCookies)
		s.videoHandler = video.NewHandler(cfg.DB, yt, baseURL)
		if cfg.Thumbnails != nil {
			s.videoHandler.SetThumbnailStore(cfg.Thumbnails)
		}
		s.creatorHandler = creator.NewHandler(cfg.DB, yt)
		s.feedHandler = feed.NewHandler(cfg.DB, baseURL)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.authHandler != nil {
		authLimiter := ratelimit.NewLimiter(0.5, 5)
		s.router.Route("/api/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", s.authHandler.Register)
			r.Post("/login", s.authHandler.Login)
			r.Post("/refresh", s.authHandler.Refresh)
			r.Post("/logout", s.authHandler.Logout)
			r.With(s.authHandler.Middleware).Post("/provider-token", s.authHandler.SetProviderToken)
		})
	}

	if s.videoHandler != nil {
		videoLimiter := ratelimit.NewLimiter(2, 10)
		s.router.Route("/api/videos", func(r chi.Router) {
			r.Use(videoLimiter.Middleware)
			r.Use(s.authHandler.Middleware)
			r.Post("/", s.videoHandler.Register)
			r.Get("/", s.videoHandler.List)
			r.Get("/{id}", s.videoHandler.Get)
			r.Delete("/{id}", s.videoHandler.Delete)
			r.Post("/{id}/backfill-channel", s.videoHandler.BackfillChannel)
			r.Post("/{id}/sources", s.videoHandler.CreateSource)
			r.Get("/{id}/sources", s.videoHandler.ListSources)
			r.Get("/{id}/export", s.videoHandler.Export)
		})
		s.router.With(videoLimiter.Middleware, s.authHandler.Middleware).
			Delete("/api/sources/{sourceID}", s.videoHandler.DeleteSource)
	}

	if s.creatorHandler != nil {
		s.router.Route("/api/creator", func(r chi.Router) {
			r.Use(s.authHandler.Middleware)
			r.Get("/", s.creatorHandler.Status)
			r.Post("/verify", s.creatorHandler.Verify)
			r.Delete("/", s.creatorHandler.Unlink)
		})
	}

	if s.feedHandler != nil {
		// The feed stays unauthenticated; the rate limiter is its only guard.
		feedLimiter := ratelimit.NewLimiter(10, 30)
		s.router.With(feedLimiter.Middleware).Get("/api/feed/{youtubeID}", s.feedHandler.Get)
		s.router.Options("/api/feed/{youtubeID}", s.feedHandler.Options)
		s.router.Get("/v/{youtubeID}", s.feedHandler.ViewerPage)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
