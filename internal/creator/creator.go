// Package creator links a user account to a verified YouTube channel.
// Verification asks the YouTube Data API which channel the user's Google
// OAuth token controls; possession of the token is the proof of ownership.
package creator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/referer/referer/internal/auth"
	"github.com/referer/referer/internal/database"
	"github.com/referer/referer/internal/httputil"
	"github.com/referer/referer/internal/youtube"
)

const uniqueViolation = "23505"

// ChannelVerifier reports the channel owned by a Google account.
type ChannelVerifier interface {
	MyChannel(ctx context.Context, accessToken string) (*youtube.Channel, error)
}

type Handler struct {
	db database.DBTX
	yt ChannelVerifier
}

func NewHandler(db database.DBTX, yt ChannelVerifier) *Handler {
	return &Handler{db: db, yt: yt}
}

type creatorResponse struct {
	ChannelID  string    `json:"channelId"`
	Name       *string   `json:"name"`
	Avatar     *string   `json:"avatar"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

type statusResponse struct {
	IsCreator bool             `json:"isCreator"`
	Creator   *creatorResponse `json:"creator"`
}

// Verify fetches the caller's channel with their stored Google token and
// records it as verified. Re-verifying replaces the previous channel link.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	token, err := auth.LookupProviderToken(r.Context(), h.db, userID)
	if errors.Is(err, auth.ErrNoProviderToken) {
		httputil.WriteError(w, http.StatusBadRequest, "sign in with Google first to verify a channel")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load provider token")
		return
	}

	channel, err := h.yt.MyChannel(r.Context(), token)
	if errors.Is(err, youtube.ErrNoChannel) {
		httputil.WriteError(w, http.StatusBadRequest, "this Google account has no YouTube channel")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "channel lookup failed")
		return
	}

	var name, avatar *string
	if channel.Title != "" {
		name = &channel.Title
	}
	if channel.Avatar != "" {
		avatar = &channel.Avatar
	}

	var verifiedAt time.Time
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO creators (user_id, youtube_channel_id, youtube_channel_name, youtube_channel_avatar)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET youtube_channel_id = EXCLUDED.youtube_channel_id,
		     youtube_channel_name = EXCLUDED.youtube_channel_name,
		     youtube_channel_avatar = EXCLUDED.youtube_channel_avatar,
		     verified_at = now()
		 RETURNING verified_at`,
		userID, channel.ID, name, avatar,
	).Scan(&verifiedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			httputil.WriteError(w, http.StatusConflict, "this channel is already verified by another account")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to save verification")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		IsCreator: true,
		Creator: &creatorResponse{
			ChannelID:  channel.ID,
			Name:       name,
			Avatar:     avatar,
			VerifiedAt: verifiedAt,
		},
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var c creatorResponse
	err := h.db.QueryRow(r.Context(),
		`SELECT youtube_channel_id, youtube_channel_name, youtube_channel_avatar, verified_at
		 FROM creators WHERE user_id = $1`,
		userID,
	).Scan(&c.ChannelID, &c.Name, &c.Avatar, &c.VerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteJSON(w, http.StatusOK, statusResponse{IsCreator: false, Creator: nil})
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load creator status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{IsCreator: true, Creator: &c})
}

// Unlink removes the channel verification. Existing citations survive; they
// just stop being labelled as the creator's.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if _, err := h.db.Exec(r.Context(),
		`DELETE FROM creators WHERE user_id = $1`, userID,
	); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to unlink channel")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
