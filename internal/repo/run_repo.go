package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shaiso/corridor/internal/domain"
)

// RunRepo — репозиторий истории runs.
type RunRepo struct {
	db DB
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(db DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create сохраняет новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO pipeline_runs (id, status, exit_code, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, run.ID, run.Status, run.ExitCode, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// AddStepResult сохраняет результат шага.
func (r *RunRepo) AddStepResult(ctx context.Context, runID uuid.UUID, position int, step domain.Step, result domain.StepResult) error {
	query := `
		INSERT INTO pipeline_step_results
			(run_id, position, step_name, policy, exit_code, launch_error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		runID,
		position,
		step.Name,
		step.Policy,
		result.ExitCode,
		nullString(result.LaunchError),
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert step result: %w", err)
	}
	return nil
}

// Finish обновляет финальное состояние run.
func (r *RunRepo) Finish(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE pipeline_runs
		SET status = $2, exit_code = $3, failed_step = $4, error = $5, finished_at = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		run.ID,
		run.Status,
		run.ExitCode,
		nullString(run.FailedStep),
		nullString(run.Error),
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, status, exit_code, failed_step, error, started_at, finished_at
		FROM pipeline_runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// ListRecent возвращает последние runs, новые первыми.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, exit_code, failed_step, error, started_at, finished_at
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListStepResults возвращает результаты шагов run в порядке выполнения.
func (r *RunRepo) ListStepResults(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT step_name, exit_code, launch_error, started_at, finished_at
		FROM pipeline_step_results
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list step results: %w", err)
	}
	defer rows.Close()

	var results []domain.StepResult
	for rows.Next() {
		var res domain.StepResult
		var launchErr *string
		if err := rows.Scan(&res.StepName, &res.ExitCode, &launchErr, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		if launchErr != nil {
			res.LaunchError = *launchErr
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// scanRun сканирует строку в Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var failedStep, runError *string
	var finishedAt *time.Time

	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.ExitCode,
		&failedStep,
		&runError,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if failedStep != nil {
		run.FailedStep = *failedStep
	}
	if runError != nil {
		run.Error = *runError
	}
	run.FinishedAt = finishedAt

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
