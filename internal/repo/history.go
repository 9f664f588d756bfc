package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/corridor/internal/domain"
)

// HistorySink сохраняет историю runs в PostgreSQL.
// Реализует orchestrator.Observer.
type HistorySink struct {
	runs *RunRepo

	mu        sync.Mutex
	positions map[uuid.UUID]int
}

// NewHistorySink создаёт HistorySink.
func NewHistorySink(runs *RunRepo) *HistorySink {
	return &HistorySink{
		runs:      runs,
		positions: make(map[uuid.UUID]int),
	}
}

// RunStarted создаёт запись run.
func (s *HistorySink) RunStarted(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	s.positions[run.ID] = 0
	s.mu.Unlock()

	return s.runs.Create(ctx, run)
}

// StepFinished сохраняет результат шага.
func (s *HistorySink) StepFinished(ctx context.Context, run *domain.Run, step domain.Step, result domain.StepResult) error {
	s.mu.Lock()
	position := s.positions[run.ID]
	s.positions[run.ID] = position + 1
	s.mu.Unlock()

	return s.runs.AddStepResult(ctx, run.ID, position, step, result)
}

// RunFinished обновляет финальное состояние run.
func (s *HistorySink) RunFinished(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	delete(s.positions, run.ID)
	s.mu.Unlock()

	return s.runs.Finish(ctx, run)
}
