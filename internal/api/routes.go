package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("GET /healthz", chain(http.HandlerFunc(h.Health)))
	if h.metrics != nil {
		mux.Handle("GET /metrics", chain(h.metrics))
	}

	mux.Handle("GET /api/v1/status", chain(http.HandlerFunc(h.GetStatus)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/last", chain(http.HandlerFunc(h.GetLastRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
}
