package worker

import "errors"

// Ошибки воркера.
var (
	// ErrEmptyAction — у шага не задана команда.
	ErrEmptyAction = errors.New("step has no action")

	// ErrLaunchFailed — команду шага не удалось запустить.
	ErrLaunchFailed = errors.New("action launch failed")

	// ErrUnknownStep — нет executor'а для шага.
	ErrUnknownStep = errors.New("no executor for step")
)
