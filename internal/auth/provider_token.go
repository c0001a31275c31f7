package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/httputil"
)

// ErrNoProviderToken means the user has not completed a Google sign-in in
// this session, so no OAuth access token is on file.
var ErrNoProviderToken = errors.New("no provider token stored")

type providerTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

// SetProviderToken stores the Google OAuth access token the frontend obtained
// during sign-in. The token is short-lived; the channel verification endpoint
// reads it back and tells the caller to re-authenticate when it is missing.
func (h *Handler) SetProviderToken(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req providerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccessToken == "" {
		httputil.WriteError(w, http.StatusBadRequest, "accessToken is required")
		return
	}

	_, err := h.db.Exec(r.Context(),
		`INSERT INTO provider_tokens (user_id, access_token, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET access_token = EXCLUDED.access_token, updated_at = now()`,
		userID, req.AccessToken,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store provider token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LookupProviderToken returns the stored Google OAuth access token for a user.
func LookupProviderToken(ctx context.Context, db database.DBTX, userID string) (string, error) {
	var token string
	err := db.QueryRow(ctx, "SELECT access_token FROM provider_tokens WHERE user_id = $1", userID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoProviderToken
	}
	if err != nil {
		return "", err
	}
	return token, nil
}
