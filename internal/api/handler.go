package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/corridor/internal/domain"
)

// StatusSource — источник текущего status record.
// Реализуется *ledger.Store.
type StatusSource interface {
	Load() ([]domain.StepResult, error)
}

// HistoryReader — чтение истории runs.
// Реализуется *repo.RunRepo.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	ListStepResults(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	steps   []domain.Step
	status  StatusSource
	history HistoryReader
	tracker *Tracker
	metrics http.Handler
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Steps — шаги pipeline (для вычисления итога по status record).
	Steps []domain.Step

	// Status — status record. Обязателен.
	Status StatusSource

	// History — история runs. Nil, если PostgreSQL не настроен.
	History HistoryReader

	// Tracker — последний run этого процесса. Nil — эндпоинт отвечает 404.
	Tracker *Tracker

	// Metrics — обработчик /metrics. Nil — эндпоинт не регистрируется.
	Metrics http.Handler

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		steps:   cfg.Steps,
		status:  cfg.Status,
		history: cfg.History,
		tracker: cfg.Tracker,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}
