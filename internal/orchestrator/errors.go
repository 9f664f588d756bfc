package orchestrator

import "errors"

// Ошибки runner'а.
var (
	// ErrSetupFailed — не удалось подготовить run (status record, workspace).
	ErrSetupFailed = errors.New("run setup failed")

	// ErrLedgerWrite — не удалось записать status record.
	ErrLedgerWrite = errors.New("status record write failed")

	// ErrInvalidTransition — переход недопустим в текущем состоянии run.
	ErrInvalidTransition = errors.New("invalid run state transition")

	// ErrUnexpectedStep — результат пришёл не для текущего шага.
	ErrUnexpectedStep = errors.New("result does not belong to current step")

	// ErrNoSteps — runner создан без шагов.
	ErrNoSteps = errors.New("pipeline has no steps")
)
