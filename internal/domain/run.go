package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepResult — результат выполнения одного шага.
//
// Создаётся ровно один раз на шаг в рамках run и после этого не изменяется.
type StepResult struct {
	// StepName — имя шага.
	StepName string `json:"step_name"`

	// ExitCode — код завершения команды шага (0 — успех).
	ExitCode int `json:"exit_code"`

	// StartedAt — время запуска команды.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения команды.
	FinishedAt time.Time `json:"finished_at"`

	// LaunchError — текст ошибки, если команду не удалось запустить.
	// Для policy такой шаг неотличим от шага с ненулевым кодом.
	LaunchError string `json:"launch_error,omitempty"`
}

// Succeeded возвращает true, если шаг завершился с кодом 0.
func (r StepResult) Succeeded() bool {
	return r.ExitCode == 0
}

// Duration возвращает продолжительность выполнения шага.
func (r StepResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run — одно выполнение pipeline.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Status — текущее состояние run.
	Status RunStatus `json:"status"`

	// ExitCode — итоговый код run (aggregate exit code).
	// Имеет смысл только в финальном статусе.
	ExitCode int `json:"exit_code"`

	// FailedStep — FATAL шаг, остановивший run. Пусто, если run не был прерван шагом.
	FailedStep string `json:"failed_step,omitempty"`

	// Error — описание причины прерывания run.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала run.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения. Nil, пока run выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewRun создаёт run в статусе INIT.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		Status:    RunStatusInit,
		StartedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	r.Status = RunStatusRunning
}

// MarkCompleted переводит run в статус COMPLETED с итоговым кодом.
func (r *Run) MarkCompleted(exitCode int) {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.ExitCode = exitCode
	r.FinishedAt = &now
}

// MarkAborted переводит run в статус ABORTED.
// step — упавший FATAL шаг (пусто для ошибок подготовки).
func (r *Run) MarkAborted(step string, exitCode int, reason string) {
	now := time.Now()
	r.Status = RunStatusAborted
	r.ExitCode = exitCode
	r.FailedStep = step
	r.Error = reason
	r.FinishedAt = &now
}
