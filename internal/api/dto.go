package api

import (
	"time"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/orchestrator"
)

// HealthResponse — ответ GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

// StatusResponse — ответ GET /api/v1/status.
type StatusResponse struct {
	orchestrator.Summary
}

// RunResponse — run из истории.
type RunResponse struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	ExitCode   int        `json:"exit_code"`
	FailedStep string     `json:"failed_step,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
}

// RunDetailResponse — run вместе с результатами шагов.
type RunDetailResponse struct {
	RunResponse
	Steps []StepResultResponse `json:"steps"`
}

// StepResultResponse — результат шага.
type StepResultResponse struct {
	Step        string    `json:"step"`
	ExitCode    int       `json:"exit_code"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
	LaunchError string    `json:"launch_error,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r *domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID.String(),
		Status:     r.Status.String(),
		ExitCode:   r.ExitCode,
		FailedStep: r.FailedStep,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMs: r.Duration().Milliseconds(),
	}
}

// StepResultsFromDomain конвертирует результаты шагов.
func StepResultsFromDomain(results []domain.StepResult) []StepResultResponse {
	out := make([]StepResultResponse, len(results))
	for i, r := range results {
		out[i] = StepResultResponse{
			Step:        r.StepName,
			ExitCode:    r.ExitCode,
			FinishedAt:  r.FinishedAt,
			DurationMs:  r.Duration().Milliseconds(),
			LaunchError: r.LaunchError,
		}
	}
	return out
}
