package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/referer/referer/internal/attribution"
)

const (
	testYouTubeID = "dQw4w9WgXcQ"
	testVideoID   = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	testOwnerID   = "11111111-2222-3333-4444-555555555555"
	testChannelID = "UCuAXFkgsw1L7xaCfnd5JJOw"
)

func newFeedRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/feed/{youtubeID}", h.Get)
	r.Options("/api/feed/{youtubeID}", h.Options)
	return r
}

func TestGet_FullFeed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := NewHandler(mock, "https://referer.example.com")

	channelID := testChannelID
	owner := testOwnerID
	other := "99999999-8888-7777-6666-555555555555"
	name := "My Channel"

	mock.ExpectQuery(`SELECT id, user_id, title, youtube_channel_id FROM videos`).
		WithArgs(testYouTubeID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "youtube_channel_id"}).
			AddRow(testVideoID, testOwnerID, "A Video", &channelID))
	mock.ExpectQuery(`SELECT youtube_channel_id, youtube_channel_name`).
		WithArgs(testOwnerID).
		WillReturnRows(pgxmock.NewRows([]string{
			"youtube_channel_id", "youtube_channel_name", "youtube_channel_avatar",
		}).AddRow(testChannelID, &name, (*string)(nil)))
	mock.ExpectQuery(`SELECT id, timestamp_seconds, claim`).
		WithArgs(testVideoID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "timestamp_seconds", "claim", "source_text", "source_url", "contributed_by", "created_at",
		}).
			AddRow("src-1", 10, "creator claim", (*string)(nil), "https://example.com/1", &owner, time.Now()).
			AddRow("src-2", 60, "community claim", (*string)(nil), "https://example.com/2", &other, time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/feed/"+testYouTubeID, nil)
	rec := httptest.NewRecorder()
	newFeedRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var resp feedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Video == nil || resp.Video.YouTubeID != testYouTubeID {
		t.Fatalf("unexpected video: %+v", resp.Video)
	}
	if resp.Creator == nil || resp.Creator.ChannelID != testChannelID {
		t.Errorf("unexpected creator: %+v", resp.Creator)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Sources[0].Attribution != attribution.Creator || !resp.Sources[0].IsCreatorSource {
		t.Errorf("source 0 attribution = %q, want creator", resp.Sources[0].Attribution)
	}
	if resp.Sources[1].Attribution != attribution.Community {
		t.Errorf("source 1 attribution = %q, want community", resp.Sources[1].Attribution)
	}
}

func TestGet_UnregisteredVideoIsEmptyFeed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := NewHandler(mock, "https://referer.example.com")
	mock.ExpectQuery(`SELECT id, user_id, title, youtube_channel_id FROM videos`).
		WithArgs(testYouTubeID).
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/api/feed/"+testYouTubeID, nil)
	rec := httptest.NewRecorder()
	newFeedRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown video, got %d", rec.Code)
	}
	var resp feedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Video != nil || resp.Creator != nil || resp.Count != 0 {
		t.Errorf("expected an empty feed, got %+v", resp)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources should be an empty array, got %v", resp.Sources)
	}
}

func TestGet_NoCreatorMeansCommunityOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := NewHandler(mock, "https://referer.example.com")

	owner := testOwnerID
	channelID := testChannelID
	mock.ExpectQuery(`SELECT id, user_id, title, youtube_channel_id FROM videos`).
		WithArgs(testYouTubeID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "youtube_channel_id"}).
			AddRow(testVideoID, testOwnerID, "A Video", &channelID))
	mock.ExpectQuery(`SELECT youtube_channel_id, youtube_channel_name`).
		WithArgs(testOwnerID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT id, timestamp_seconds, claim`).
		WithArgs(testVideoID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "timestamp_seconds", "claim", "source_text", "source_url", "contributed_by", "created_at",
		}).AddRow("src-1", 10, "owner claim, unverified owner", (*string)(nil), "https://example.com/1", &owner, time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/feed/"+testYouTubeID, nil)
	rec := httptest.NewRecorder()
	newFeedRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp feedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Creator != nil {
		t.Errorf("creator = %+v, want null", resp.Creator)
	}
	if resp.Sources[0].Attribution != attribution.Community {
		t.Errorf("attribution = %q, want community without a verified channel", resp.Sources[0].Attribution)
	}
}

func TestGet_MalformedIDSkipsDatabase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := NewHandler(mock, "https://referer.example.com")

	for _, id := range []string{"short", "waytoolongforanid", "bad!chars00"} {
		req := httptest.NewRequest(http.MethodGet, "/api/feed/"+id, nil)
		rec := httptest.NewRecorder()
		newFeedRouter(handler).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", id, rec.Code)
		}
	}

	// No queries may have reached the pool.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestOptions_Preflight(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	handler := NewHandler(mock, "https://referer.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/api/feed/"+testYouTubeID, nil)
	rec := httptest.NewRecorder()
	newFeedRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
