package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/riftcast/riftcast/internal/domain"
)

// PredictionAPI is the slice of the prediction service the handler needs.
type PredictionAPI interface {
	List(ctx context.Context, userID string, n int) ([]domain.Prediction, error)
	Create(ctx context.Context, userID, title string, outcomes []string, windowSeconds int) (domain.Prediction, error)
	Resolve(ctx context.Context, userID, predictionID, winningOutcomeID string) (domain.Prediction, error)
	Cancel(ctx context.Context, userID, predictionID string) (domain.Prediction, error)
	Get(ctx context.Context, userID, predictionID string) (domain.Prediction, error)
}

// PredictionHandler serves the prediction endpoints.
type PredictionHandler struct {
	predictions PredictionAPI
	logger      *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(predictions PredictionAPI, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, logger: logger}
}

// List fetches the user's recent predictions from the platform.
// GET /api/predictions?count=25
func (h *PredictionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	count := 25
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = n
	}

	preds, err := h.predictions.List(r.Context(), uid, count)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list predictions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}

type createPredictionRequest struct {
	Title         string   `json:"title"`
	Outcomes      []string `json:"outcomes"`
	WindowSeconds int      `json:"window_seconds"`
}

// Create opens a prediction on the user's channel.
// POST /api/predictions
func (h *PredictionHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	var req createPredictionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pred, err := h.predictions.Create(r.Context(), uid, req.Title, req.Outcomes, req.WindowSeconds)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "create prediction")
		return
	}
	writeJSON(w, http.StatusCreated, pred)
}

// Get returns a single prediction.
// GET /api/predictions/{id}
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing prediction id")
		return
	}

	pred, err := h.predictions.Get(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "get prediction")
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

type resolvePredictionRequest struct {
	WinningOutcomeID string `json:"winning_outcome_id"`
}

// Resolve ends a prediction with the chosen outcome.
// POST /api/predictions/{id}/resolve
func (h *PredictionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	id := r.PathValue("id")
	var req resolvePredictionRequest
	if err := decodeBody(r, &req); err != nil || req.WinningOutcomeID == "" {
		writeError(w, http.StatusBadRequest, "missing winning outcome id")
		return
	}

	pred, err := h.predictions.Resolve(r.Context(), uid, id, req.WinningOutcomeID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "resolve prediction")
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// Cancel voids a prediction, refunding all wagered points.
// POST /api/predictions/{id}/cancel
func (h *PredictionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	id := r.PathValue("id")

	pred, err := h.predictions.Cancel(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "cancel prediction")
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
