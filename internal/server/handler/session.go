package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/riftcast/riftcast/internal/domain"
)

// SessionAPI is the slice of the session service the handler needs.
type SessionAPI interface {
	Start(ctx context.Context, broadcasterID, name, description, tags string) (domain.Session, error)
	End(ctx context.Context, broadcasterID, sessionID string) (domain.Session, error)
	Get(ctx context.Context, broadcasterID, sessionID string) (domain.Session, error)
	List(ctx context.Context, broadcasterID string) ([]domain.Session, error)
	Predictions(ctx context.Context, broadcasterID, sessionID string) ([]domain.Prediction, error)
}

// SessionHandler serves the prediction session endpoints.
type SessionHandler struct {
	sessions SessionAPI
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions SessionAPI, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type startSessionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// Start opens a new session, completing any still running.
// POST /api/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessions.Start(r.Context(), uid, req.Name, req.Description, req.Tags)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "start session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// End completes a session.
// POST /api/sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	sess, err := h.sessions.End(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "end session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// List returns the user's sessions.
// GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	sessions, err := h.sessions.List(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// Predictions returns the predictions recorded under a session.
// GET /api/sessions/{id}/predictions
func (h *SessionHandler) Predictions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	preds, err := h.sessions.Predictions(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list session predictions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}
