package ledger

import "errors"

// Ошибки ledger.
var (
	// ErrDuplicateStep — результат шага уже записан в этом run.
	ErrDuplicateStep = errors.New("step result already recorded")

	// ErrMalformedRecord — строка status record не в формате <STEP>_RC=<code>.
	ErrMalformedRecord = errors.New("malformed status record line")

	// ErrNoRecord — status record отсутствует.
	ErrNoRecord = errors.New("status record not found")
)
