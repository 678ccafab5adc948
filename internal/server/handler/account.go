package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
	"github.com/riftcast/riftcast/internal/service"
)

// AccountAPI is the slice of the account service the handler needs.
type AccountAPI interface {
	Connect(ctx context.Context, userID, riotID, region string) (domain.Account, error)
	Activate(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error)
	UpdateSettings(ctx context.Context, userID string, id uuid.UUID, settings service.AccountSettings) (domain.Account, error)
	Disconnect(ctx context.Context, userID string, id uuid.UUID) error
	Get(ctx context.Context, userID string, id uuid.UUID) (domain.Account, error)
	List(ctx context.Context, userID string) ([]domain.Account, error)
}

// AccountHandler serves the League account endpoints.
type AccountHandler struct {
	accounts AccountAPI
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts AccountAPI, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type connectAccountRequest struct {
	RiotID string `json:"riot_id"`
	Region string `json:"region"`
}

// Connect links a new League account and makes it active.
// POST /api/accounts
func (h *AccountHandler) Connect(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	var req connectAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.accounts.Connect(r.Context(), uid, req.RiotID, req.Region)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "connect account")
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// List returns the user's connected accounts.
// GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	accounts, err := h.accounts.List(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// Get returns a single account.
// GET /api/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	acc, err := h.accounts.Get(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "get account")
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// Activate makes the account the user's tracked one.
// POST /api/accounts/{id}/activate
func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	acc, err := h.accounts.Activate(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "activate account")
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type accountSettingsRequest struct {
	AutoCreate       bool       `json:"auto_create"`
	AutoResolve      bool       `json:"auto_resolve"`
	ActiveTemplateID *uuid.UUID `json:"active_template_id"`
}

// UpdateSettings changes the automation flags and template of an account.
// PATCH /api/accounts/{id}/settings
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	var req accountSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acc, err := h.accounts.UpdateSettings(r.Context(), uid, id, service.AccountSettings{
		AutoCreate:       req.AutoCreate,
		AutoResolve:      req.AutoResolve,
		ActiveTemplateID: req.ActiveTemplateID,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err, "update account settings")
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// Disconnect removes an account and its tracking state.
// DELETE /api/accounts/{id}
func (h *AccountHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Disconnect(r.Context(), uid, id); err != nil {
		writeDomainError(w, r, h.logger, err, "disconnect account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) identify(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return "", uuid.Nil, false
	}
	return uid, id, true
}
