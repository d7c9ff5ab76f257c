package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Ticker advances the schedule once. Implemented by the scheduler
// dispatcher.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (int, error)
}

// TickHandler triggers a manual scheduler pass. The dispatcher already
// runs on its own interval; this endpoint exists for operations and
// tests that need an immediate pass.
type TickHandler struct {
	ticker Ticker
	logger *zap.Logger
}

// NewTickHandler creates a tick handler.
func NewTickHandler(ticker Ticker, log *zap.Logger) *TickHandler {
	return &TickHandler{ticker: ticker, logger: log}
}

// Tick handles POST /api/v1/tick
func (h *TickHandler) Tick(w http.ResponseWriter, r *http.Request) {
	processed, err := h.ticker.Tick(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("manual_tick_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Scheduler tick failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"processed": processed})
}
