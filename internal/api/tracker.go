package api

import (
	"context"
	"sync"

	"github.com/shaiso/corridor/internal/domain"
)

// Tracker запоминает текущий и последний завершённый run процесса.
//
// Подключается к runner'у как observer; отдаётся через GET /api/v1/runs/last.
type Tracker struct {
	mu      sync.RWMutex
	current *RunSnapshot
	last    *RunSnapshot
}

// RunSnapshot — копия run и результатов его шагов.
type RunSnapshot struct {
	Run     domain.Run          `json:"run"`
	Results []domain.StepResult `json:"results"`
}

// NewTracker создаёт пустой Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RunStarted реализует observer.
func (t *Tracker) RunStarted(_ context.Context, run *domain.Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &RunSnapshot{Run: *run}
	return nil
}

// StepFinished реализует observer.
func (t *Tracker) StepFinished(_ context.Context, run *domain.Run, _ domain.Step, result domain.StepResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.current.Run.ID != run.ID {
		t.current = &RunSnapshot{Run: *run}
	}
	t.current.Run = *run
	t.current.Results = append(t.current.Results, result)
	return nil
}

// RunFinished реализует observer.
func (t *Tracker) RunFinished(_ context.Context, run *domain.Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := &RunSnapshot{Run: *run}
	if t.current != nil && t.current.Run.ID == run.ID {
		snap.Results = t.current.Results
	}
	t.last = snap
	t.current = nil
	return nil
}

// Last возвращает последний завершённый run.
func (t *Tracker) Last() (RunSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return RunSnapshot{}, false
	}
	return copySnapshot(t.last), true
}

// Running возвращает true, если run выполняется.
func (t *Tracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current != nil
}

func copySnapshot(s *RunSnapshot) RunSnapshot {
	out := RunSnapshot{Run: s.Run}
	out.Results = append([]domain.StepResult(nil), s.Results...)
	return out
}
