package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/riftcast/riftcast/internal/domain"
)

// AuthService is the OAuth slice of the token service.
type AuthService interface {
	AuthorizeURL() string
	HandleAuthCode(ctx context.Context, code string) (domain.UserToken, error)
	Revoke(ctx context.Context, userID string) error
}

// AuthHandler serves the Twitch OAuth flow.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login redirects the browser to the Twitch consent screen.
// GET /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.auth.AuthorizeURL(), http.StatusFound)
}

// Callback receives the authorization code from Twitch, exchanges it and
// stores the resulting token pair.
// GET /api/auth/callback?code=...
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		writeError(w, http.StatusBadRequest, "authorization denied: "+q.Get("error_description"))
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.auth.HandleAuthCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "complete authorization")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id": token.UserID,
		"status":  "authorized",
	})
}

// Logout drops the stored credentials of the acting user.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	if err := h.auth.Revoke(r.Context(), uid); err != nil {
		writeDomainError(w, r, h.logger, err, "revoke credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
