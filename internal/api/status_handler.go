package api

import (
	"net/http"

	"github.com/shaiso/corridor/internal/orchestrator"
)

// Health — liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.tracker != nil {
		resp.Running = h.tracker.Running()
	}
	JSON(w, http.StatusOK, resp)
}

// GetStatus возвращает status record и итог, вычисленный по нему.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	results, err := h.status.Load()
	if HandleError(w, h.logger, err, "status record not found") {
		return
	}

	Success(w, StatusResponse{Summary: orchestrator.Summarize(h.steps, results)})
}
