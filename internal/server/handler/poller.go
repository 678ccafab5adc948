package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/riftcast/riftcast/internal/domain"
)

// CycleRunner triggers one poll cycle outside the schedule.
type CycleRunner interface {
	RunOnce(ctx context.Context) error
}

// PollerHandler serves the manual poll trigger.
type PollerHandler struct {
	poller CycleRunner
	logger *slog.Logger
}

// NewPollerHandler creates a PollerHandler.
func NewPollerHandler(poller CycleRunner, logger *slog.Logger) *PollerHandler {
	return &PollerHandler{poller: poller, logger: logger}
}

// Run executes one poll cycle synchronously. A cycle already in flight
// yields 409 without touching any account.
// POST /api/poller/run
func (h *PollerHandler) Run(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if err := h.poller.RunOnce(r.Context()); err != nil {
		if errors.Is(err, domain.ErrCycleInProgress) {
			writeError(w, http.StatusConflict, "a poll cycle is already running")
			return
		}
		writeDomainError(w, r, h.logger, err, "run poll cycle")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "completed",
		"took":   time.Since(started).String(),
	})
}
