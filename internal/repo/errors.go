package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrLocked — другой процесс уже выполняет run.
	ErrLocked = errors.New("another run holds the pipeline lock")
)
