package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/ledger"
	"github.com/shaiso/corridor/internal/telemetry"
	"github.com/shaiso/corridor/internal/worker"
)

// Runner выполняет pipeline.
//
// Runner — единственный писатель status record. Шаги выполняются
// строго последовательно: шаг n+1 не начинается, пока результат
// шага n не сохранён. Повторов нет, таймаутов нет.
type Runner struct {
	steps      []domain.Step
	executor   worker.Executor
	store      *ledger.Store
	workspaces []string
	observers  []Observer
	logger     *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	// Steps — упорядоченные шаги (обычно domain.BuildSteps).
	Steps []domain.Step

	// Executor — запуск действия шага.
	Executor worker.Executor

	// Store — status record.
	Store *ledger.Store

	// Workspaces — каталоги, которые должны существовать до первого шага.
	Workspaces []string

	// Observers — получатели событий run (метрики, события, история).
	Observers []Observer

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		steps:      cfg.Steps,
		executor:   cfg.Executor,
		store:      cfg.Store,
		workspaces: cfg.Workspaces,
		observers:  cfg.Observers,
		logger:     logger,
	}
}

// RunOutcome — итог выполнения pipeline.
type RunOutcome struct {
	// Run — финальное состояние run.
	Run *domain.Run

	// Results — результаты выполненных шагов в порядке выполнения.
	Results []domain.StepResult
}

// ExitCode возвращает итоговый код run (код завершения процесса).
func (o *RunOutcome) ExitCode() int {
	return o.Run.ExitCode
}

// Run выполняет pipeline целиком и возвращает итог.
//
// Run не возвращает ошибок: любая проблема (ошибка подготовки,
// ненулевой код шага, ошибка запуска, ошибка записи status record)
// отражается в итоговом коде.
func (r *Runner) Run(ctx context.Context) *RunOutcome {
	run := domain.NewRun()
	state := NewRunState(run, r.steps)

	logger := telemetry.WithRunID(r.logger, run.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)
	ctx = telemetry.ContextWithRunID(ctx, run.ID.String())

	logger.Info("starting run", "steps", len(r.steps))
	r.notifyRunStarted(ctx, run)

	// INIT
	if err := r.setup(); err != nil {
		logger.Error("run setup failed", "error", err)
		_ = state.AbortSetup(err)
		return r.finish(ctx, state)
	}

	if err := state.Start(); err != nil {
		logger.Error("cannot start run", "error", err)
		_ = state.AbortSetup(err)
		return r.finish(ctx, state)
	}

	// RUNNING(step_i)
	for {
		step, position, ok := state.CurrentStep()
		if !ok {
			break
		}

		result := r.executeStep(ctx, step, position)

		if err := state.Record(result); err != nil {
			logger.Error("cannot record step result", "step", step.Name, "error", err)
			_ = state.AbortLedger(err)
			break
		}

		if err := r.store.Save(state.Ledger()); err != nil {
			err = fmt.Errorf("%w: %v", ErrLedgerWrite, err)
			logger.Error("cannot persist status record", "step", step.Name, "error", err)
			_ = state.AbortLedger(err)
			r.notifyStepFinished(ctx, run, step, result)
			break
		}

		r.notifyStepFinished(ctx, run, step, result)

		status, err := state.ApplyPolicy()
		if err != nil {
			logger.Error("cannot apply step policy", "step", step.Name, "error", err)
			break
		}

		if !result.Succeeded() {
			switch {
			case status == domain.RunStatusAborted:
				logger.Error("fatal step failed, aborting run",
					"step", step.Name,
					"exit_code", result.ExitCode,
				)
			case step.Policy == domain.PolicyTolerated:
				logger.Warn("tolerated step failed, continuing",
					"step", step.Name,
					"exit_code", result.ExitCode,
				)
			}
		}
	}

	// ABORTED | COMPLETED
	return r.finish(ctx, state)
}

// setup очищает status record предыдущего run и создаёт workspace.
func (r *Runner) setup() error {
	if r.executor == nil || r.store == nil {
		return fmt.Errorf("%w: runner is not configured", ErrSetupFailed)
	}

	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	for _, dir := range r.workspaces {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create workspace %s: %v", ErrSetupFailed, dir, err)
		}
	}
	return nil
}

// executeStep запускает действие шага и превращает любой исход в StepResult.
func (r *Runner) executeStep(ctx context.Context, step domain.Step, position int) (result domain.StepResult) {
	logger := telemetry.WithStep(telemetry.FromContext(ctx), step.Name)
	logger.Info("starting step",
		"position", position+1,
		"total", len(r.steps),
		"policy", step.Policy,
	)

	result = domain.StepResult{
		StepName:  step.Name,
		StartedAt: time.Now(),
	}

	defer func() {
		if p := recover(); p != nil {
			result.ExitCode = domain.ExitLaunchFailure
			result.LaunchError = fmt.Sprintf("executor panic: %v", p)
			result.FinishedAt = time.Now()
			logger.Error("step executor panicked", "panic", p)
		}
	}()

	res, err := r.executor.Execute(ctx, step)
	result.FinishedAt = time.Now()

	if err != nil {
		result.ExitCode = domain.ExitLaunchFailure
		result.LaunchError = err.Error()
		logger.Error("step action could not be started",
			"exit_code", result.ExitCode,
			"error", err,
		)
		return result
	}

	result.ExitCode = res.ExitCode
	logger.Info("step finished",
		"exit_code", result.ExitCode,
		"duration", result.Duration(),
	)
	return result
}

// finish сохраняет итоговый status record и уведомляет observers.
func (r *Runner) finish(ctx context.Context, state *RunState) *RunOutcome {
	run := state.Run
	logger := telemetry.FromContext(ctx)

	// Финальный flush: status record уже актуален после каждого шага,
	// повторная запись нужна только если run дошёл до шагов и запись не падала.
	if state.Ledger().Len() > 0 && !state.LedgerFailed() {
		if err := r.store.Save(state.Ledger()); err != nil {
			logger.Error("final status record flush failed", "error", err)
		}
	}

	stats := state.Stats()
	switch run.Status {
	case domain.RunStatusCompleted:
		logger.Info("run completed",
			"exit_code", run.ExitCode,
			"executed", stats.ExecutedSteps,
			"failed", stats.FailedSteps,
			"duration", run.Duration(),
		)
	default:
		logger.Error("run aborted",
			"exit_code", run.ExitCode,
			"failed_step", run.FailedStep,
			"reason", run.Error,
			"executed", stats.ExecutedSteps,
			"skipped", stats.PendingSteps,
		)
	}

	r.notifyRunFinished(ctx, run)

	return &RunOutcome{
		Run:     run,
		Results: state.Ledger().Results(),
	}
}

// Steps возвращает шаги pipeline.
func (r *Runner) Steps() []domain.Step {
	return r.steps
}
