package cli

import (
	"errors"
	"fmt"
)

// ExitCodeError — команда завершилась с заданным кодом процесса.
//
// Err может быть nil: ненулевой итог run не является ошибкой CLI,
// это только код завершения.
type ExitCodeError struct {
	Code int
	Err  error
}

// Error реализует error.
func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap возвращает исходную ошибку.
func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCode возвращает код процесса для ошибки команды.
// nil — 0; ExitCodeError — его код; любая другая ошибка — fallback.
func ExitCode(err error, fallback int) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return fallback
}

// errHistoryDisabled — история запрошена без DB_URL.
var errHistoryDisabled = errors.New("run history requires DB_URL")
