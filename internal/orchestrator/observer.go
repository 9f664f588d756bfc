package orchestrator

import (
	"context"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/telemetry"
)

// Observer получает события run.
//
// Реализации: telemetry.Metrics, mq.EventSink, repo.HistorySink.
// Ошибка observer'а логируется и не влияет на итог run и status record.
type Observer interface {
	RunStarted(ctx context.Context, run *domain.Run) error
	StepFinished(ctx context.Context, run *domain.Run, step domain.Step, result domain.StepResult) error
	RunFinished(ctx context.Context, run *domain.Run) error
}

// notifyRunStarted уведомляет observers о начале run.
func (r *Runner) notifyRunStarted(ctx context.Context, run *domain.Run) {
	for _, o := range r.observers {
		if err := o.RunStarted(ctx, run); err != nil {
			telemetry.FromContext(ctx).Warn("observer failed on run start", "error", err)
		}
	}
}

// notifyStepFinished уведомляет observers о завершении шага.
func (r *Runner) notifyStepFinished(ctx context.Context, run *domain.Run, step domain.Step, result domain.StepResult) {
	for _, o := range r.observers {
		if err := o.StepFinished(ctx, run, step, result); err != nil {
			telemetry.FromContext(ctx).Warn("observer failed on step finish", "step", step.Name, "error", err)
		}
	}
}

// notifyRunFinished уведомляет observers о завершении run.
func (r *Runner) notifyRunFinished(ctx context.Context, run *domain.Run) {
	for _, o := range r.observers {
		if err := o.RunFinished(ctx, run); err != nil {
			telemetry.FromContext(ctx).Warn("observer failed on run finish", "error", err)
		}
	}
}
