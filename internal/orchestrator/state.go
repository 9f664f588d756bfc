package orchestrator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/ledger"
)

// RunState — машина состояний одного run.
//
// Состояния совпадают с domain.RunStatus:
//
//	INIT → RUNNING(step_i) → RUNNING(step_i+1) | ABORTED(step_i) | COMPLETED
//	INIT → ABORTED (ошибка подготовки)
//
// В состоянии RUNNING(step_i) результат шага сначала записывается
// (Record), затем вызывающий код сохраняет ledger, и только после
// этого применяется policy (ApplyPolicy).
type RunState struct {
	// Run — данные run.
	Run *domain.Run

	// steps — упорядоченные шаги pipeline.
	steps []domain.Step

	// ledger — результаты выполненных шагов.
	ledger *ledger.Ledger

	// current — индекс текущего шага в RUNNING.
	current int

	// recorded — результат текущего шага записан, policy ещё не применена.
	recorded bool

	// ledgerFailed — status record не удалось сохранить (AbortLedger).
	ledgerFailed bool

	mu sync.RWMutex
}

// NewRunState создаёт RunState в состоянии INIT.
func NewRunState(run *domain.Run, steps []domain.Step) *RunState {
	return &RunState{
		Run:    run,
		steps:  steps,
		ledger: ledger.New(),
	}
}

// Status возвращает текущее состояние run.
func (s *RunState) Status() domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Run.Status
}

// Ledger возвращает ledger run.
func (s *RunState) Ledger() *ledger.Ledger {
	return s.ledger
}

// RunID возвращает ID run.
func (s *RunState) RunID() uuid.UUID {
	return s.Run.ID
}

// Start переводит run из INIT в RUNNING(step_0).
func (s *RunState) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Run.Status != domain.RunStatusInit {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.Run.Status)
	}
	if len(s.steps) == 0 {
		return ErrNoSteps
	}

	s.current = 0
	s.Run.MarkRunning()
	return nil
}

// CurrentStep возвращает шаг, который должен выполняться сейчас.
// ok == false, если run не в состоянии RUNNING.
func (s *RunState) CurrentStep() (step domain.Step, position int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Run.Status != domain.RunStatusRunning {
		return domain.Step{}, 0, false
	}
	return s.steps[s.current], s.current, true
}

// Record записывает результат текущего шага в ledger.
func (s *RunState) Record(result domain.StepResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Run.Status != domain.RunStatusRunning || s.recorded {
		return fmt.Errorf("%w: record in %s", ErrInvalidTransition, s.Run.Status)
	}

	step := s.steps[s.current]
	if result.StepName != step.Name {
		return fmt.Errorf("%w: got %s, current %s", ErrUnexpectedStep, result.StepName, step.Name)
	}

	if err := s.ledger.Record(result); err != nil {
		return err
	}
	s.recorded = true
	return nil
}

// ApplyPolicy применяет policy текущего шага к его записанному результату
// и переходит в следующее состояние:
//   - FATAL и код != 0 → ABORTED, итоговый код = код шага
//   - последний шаг → COMPLETED, итоговый код по Evaluate
//   - иначе → RUNNING(step_i+1)
func (s *RunState) ApplyPolicy() (domain.RunStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Run.Status != domain.RunStatusRunning || !s.recorded {
		return s.Run.Status, fmt.Errorf("%w: apply policy in %s", ErrInvalidTransition, s.Run.Status)
	}

	step := s.steps[s.current]
	result, _ := s.ledger.Get(step.Name)
	s.recorded = false

	if step.Policy == domain.PolicyFatal && !result.Succeeded() {
		s.Run.MarkAborted(step.Name, result.ExitCode,
			fmt.Sprintf("fatal step %s exited with code %d", step.Name, result.ExitCode))
		return s.Run.Status, nil
	}

	s.current++
	if s.current < len(s.steps) {
		return s.Run.Status, nil
	}

	outcome := Evaluate(s.steps, s.ledger.Results())
	s.Run.MarkCompleted(outcome.ExitCode)
	return s.Run.Status, nil
}

// AbortSetup переводит run из INIT в ABORTED с кодом domain.ExitSetupFailure.
func (s *RunState) AbortSetup(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Run.Status != domain.RunStatusInit {
		return fmt.Errorf("%w: abort setup from %s", ErrInvalidTransition, s.Run.Status)
	}

	s.Run.MarkAborted("", domain.ExitSetupFailure, cause.Error())
	return nil
}

// AbortLedger переводит run из RUNNING в ABORTED с кодом domain.ExitLedgerFailure.
// Используется, когда результат шага не удалось сохранить в status record.
func (s *RunState) AbortLedger(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Run.Status != domain.RunStatusRunning {
		return fmt.Errorf("%w: abort ledger from %s", ErrInvalidTransition, s.Run.Status)
	}

	s.Run.MarkAborted(s.steps[s.current].Name, domain.ExitLedgerFailure, cause.Error())
	s.recorded = false
	s.ledgerFailed = true
	return nil
}

// LedgerFailed возвращает true, если run прерван ошибкой записи status record.
// Код шага, совпавший с domain.ExitLedgerFailure, сюда не относится.
func (s *RunState) LedgerFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledgerFailed
}

// Stats возвращает статистику выполнения.
func (s *RunState) Stats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.steps)
	executed := s.ledger.Len()
	return RunStats{
		TotalSteps:    total,
		ExecutedSteps: executed,
		FailedSteps:   len(s.ledger.Failed()),
		PendingSteps:  total - executed,
	}
}

// RunStats — статистика выполнения run.
type RunStats struct {
	TotalSteps    int
	ExecutedSteps int
	FailedSteps   int
	PendingSteps  int
}
