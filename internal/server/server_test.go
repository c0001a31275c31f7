package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T) (*Server, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	srv := New(Config{
		DB:        mock,
		Pinger:    &stubPinger{},
		JWTSecret: "server-test-secret",
		BaseURL:   "https://referer.example.com",
	})
	return srv, mock
}

func TestHealth_OK(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	srv := New(Config{
		DB:        mock,
		Pinger:    &stubPinger{err: errors.New("connection refused")},
		JWTSecret: "server-test-secret",
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/videos"},
		{http.MethodGet, "/api/videos"},
		{http.MethodDelete, "/api/videos/some-id"},
		{http.MethodPost, "/api/videos/some-id/sources"},
		{http.MethodGet, "/api/videos/some-id/export"},
		{http.MethodDelete, "/api/sources/some-id"},
		{http.MethodGet, "/api/creator"},
		{http.MethodPost, "/api/creator/verify"},
		{http.MethodPost, "/api/auth/provider-token"},
	}
	for _, route := range routes {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestFeedIsPublic(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery(`SELECT id, user_id, title, youtube_channel_id FROM videos`).
		WithArgs("dQw4w9WgXcQ").
		WillReturnError(pgx.ErrNoRows)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without credentials, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestViewerPageIsPublic(t *testing.T) {
	srv, mock := newTestServer(t)

	mock.ExpectQuery(`SELECT id, user_id, title, youtube_channel_id FROM videos`).
		WithArgs("dQw4w9WgXcQ").
		WillReturnError(pgx.ErrNoRows)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
