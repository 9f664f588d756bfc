package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// ListRuns возвращает последние runs из истории.
// GET /api/v1/runs?limit=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		Unavailable(w, "run history is not configured")
		return
	}

	limit := defaultRunsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.history.ListRecent(r.Context(), limit)
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i := range runs {
		result[i] = RunFromDomain(&runs[i])
	}

	List(w, result, len(result))
}

// GetRun возвращает run из истории вместе с результатами шагов.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		Unavailable(w, "run history is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.history.GetByID(r.Context(), id)
	if HandleError(w, h.logger, err, "run not found") {
		return
	}

	results, err := h.history.ListStepResults(r.Context(), id)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Success(w, RunDetailResponse{
		RunResponse: RunFromDomain(run),
		Steps:       StepResultsFromDomain(results),
	})
}

// GetLastRun возвращает последний run, завершённый этим процессом.
// GET /api/v1/runs/last
func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		NotFound(w, "no run finished yet")
		return
	}

	snap, ok := h.tracker.Last()
	if !ok {
		NotFound(w, "no run finished yet")
		return
	}

	Success(w, RunDetailResponse{
		RunResponse: RunFromDomain(&snap.Run),
		Steps:       StepResultsFromDomain(snap.Results),
	})
}
