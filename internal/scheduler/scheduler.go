package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RunFunc выполняет один run и возвращает его итоговый код.
type RunFunc func(ctx context.Context) int

// Scheduler запускает RunFunc по расписанию, по одному run за раз.
type Scheduler struct {
	schedule   *Schedule
	run        RunFunc
	runOnStart bool
	logger     *slog.Logger
	now        func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	CronExpr string
	Timezone string
	RunFunc  RunFunc

	// RunOnStart — выполнить run сразу при старте, не дожидаясь тика.
	RunOnStart bool

	Logger *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.RunFunc == nil {
		return nil, errors.New("scheduler: RunFunc is required")
	}

	sched, err := ParseSchedule(cfg.CronExpr, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedule:   sched,
		run:        cfg.RunFunc,
		runOnStart: cfg.RunOnStart,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Start выполняет цикл планировщика до отмены ctx.
// Возвращает ctx.Err() после остановки.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "cron", s.schedule.String())

	if s.runOnStart {
		s.tick(ctx)
	}

	for {
		next := s.schedule.Next(s.now())
		wait := time.Until(next)
		s.logger.Info("next run scheduled", "at", next, "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

// tick выполняет один run. Итог run не останавливает планировщик.
func (s *Scheduler) tick(ctx context.Context) {
	started := s.now()
	code := s.run(ctx)

	s.logger.Info("scheduled run finished",
		"exit_code", code,
		"duration", time.Since(started).Round(time.Millisecond),
	)
}
