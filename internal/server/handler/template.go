package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/riftcast/riftcast/internal/domain"
)

// TemplateAPI is the slice of the template service the handler needs.
type TemplateAPI interface {
	Create(ctx context.Context, userID string, t domain.Template) (domain.Template, error)
	Update(ctx context.Context, userID string, t domain.Template) (domain.Template, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Get(ctx context.Context, userID string, id uuid.UUID) (domain.Template, error)
	List(ctx context.Context, userID string) ([]domain.Template, error)
}

// TemplateHandler serves the prediction template endpoints.
type TemplateHandler struct {
	templates TemplateAPI
	logger    *slog.Logger
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(templates TemplateAPI, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: logger}
}

type templateRequest struct {
	Title           string `json:"title"`
	Outcome1        string `json:"outcome_1"`
	Outcome2        string `json:"outcome_2"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (req templateRequest) toDomain() domain.Template {
	return domain.Template{
		Title:           req.Title,
		Outcome1:        req.Outcome1,
		Outcome2:        req.Outcome2,
		DurationSeconds: req.DurationSeconds,
	}
}

// Create stores a new template.
// POST /api/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	var req templateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tpl, err := h.templates.Create(r.Context(), uid, req.toDomain())
	if err != nil {
		writeDomainError(w, r, h.logger, err, "create template")
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// List returns the user's templates.
// GET /api/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	templates, err := h.templates.List(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list templates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// Get returns a single template.
// GET /api/templates/{id}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	tpl, err := h.templates.Get(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "get template")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// Update rewrites a template.
// PUT /api/templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tpl := req.toDomain()
	tpl.ID = id
	updated, err := h.templates.Update(r.Context(), uid, tpl)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "update template")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a template.
// DELETE /api/templates/{id}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := h.identify(w, r)
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), uid, id); err != nil {
		writeDomainError(w, r, h.logger, err, "delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TemplateHandler) identify(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return "", uuid.Nil, false
	}
	return uid, id, true
}
