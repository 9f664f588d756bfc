package mq

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/corridor/internal/domain"
)

// StepFinishedPayload — payload события step.finished.
type StepFinishedPayload struct {
	RunID      uuid.UUID     `json:"run_id"`
	Step       string        `json:"step"`
	Policy     domain.Policy `json:"policy"`
	ExitCode   int           `json:"exit_code"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// RunFinishedPayload — payload события run.finished.
type RunFinishedPayload struct {
	RunID      uuid.UUID        `json:"run_id"`
	Status     domain.RunStatus `json:"status"`
	ExitCode   int              `json:"exit_code"`
	FailedStep string           `json:"failed_step,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// publisher — то, что нужно EventSink от Publisher.
type publisher interface {
	Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error
}

// EventSink публикует события runner'а в RabbitMQ.
// Реализует orchestrator.Observer.
type EventSink struct {
	pub publisher
}

// NewEventSink создаёт EventSink поверх Publisher.
func NewEventSink(pub *Publisher) *EventSink {
	return &EventSink{pub: pub}
}

// RunStarted ничего не публикует.
func (s *EventSink) RunStarted(_ context.Context, _ *domain.Run) error {
	return nil
}

// StepFinished публикует step.finished.
func (s *EventSink) StepFinished(ctx context.Context, run *domain.Run, step domain.Step, result domain.StepResult) error {
	msg := NewMessage(MessageTypeStepFinished, StepFinishedPayload{
		RunID:      run.ID,
		Step:       step.Name,
		Policy:     step.Policy,
		ExitCode:   result.ExitCode,
		Error:      result.LaunchError,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	})
	return s.pub.Publish(ctx, ExchangeRuns, RoutingKeyStepFinished, msg)
}

// RunFinished публикует run.finished.
func (s *EventSink) RunFinished(ctx context.Context, run *domain.Run) error {
	msg := NewMessage(MessageTypeRunFinished, RunFinishedPayload{
		RunID:      run.ID,
		Status:     run.Status,
		ExitCode:   run.ExitCode,
		FailedStep: run.FailedStep,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	})
	return s.pub.Publish(ctx, ExchangeRuns, RoutingKeyRunFinished, msg)
}
