package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB — подмножество pgxpool.Pool, нужное репозиториям.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool создаёт пул соединений к PostgreSQL и проверяет доступность.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// schema — таблицы истории runs.
const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id          uuid PRIMARY KEY,
	status      text        NOT NULL,
	exit_code   integer     NOT NULL DEFAULT 0,
	failed_step text,
	error       text,
	started_at  timestamptz NOT NULL,
	finished_at timestamptz
);

CREATE TABLE IF NOT EXISTS pipeline_step_results (
	run_id       uuid        NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	position     integer     NOT NULL,
	step_name    text        NOT NULL,
	policy       text        NOT NULL,
	exit_code    integer     NOT NULL,
	launch_error text,
	started_at   timestamptz NOT NULL,
	finished_at  timestamptz NOT NULL,
	PRIMARY KEY (run_id, step_name)
);

CREATE INDEX IF NOT EXISTS pipeline_runs_started_at_idx ON pipeline_runs (started_at DESC);
`

// EnsureSchema создаёт таблицы истории, если их нет.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
