package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/corridor/internal/api"
	"github.com/shaiso/corridor/internal/config"
	"github.com/shaiso/corridor/internal/ledger"
	"github.com/shaiso/corridor/internal/mq"
	"github.com/shaiso/corridor/internal/orchestrator"
	"github.com/shaiso/corridor/internal/repo"
	"github.com/shaiso/corridor/internal/telemetry"
	"github.com/shaiso/corridor/internal/worker"
)

// App — собранный runner со всеми зависимостями.
type App struct {
	Config  *config.Config
	Store   *ledger.Store
	Metrics *telemetry.Metrics
	Tracker *api.Tracker

	runner *orchestrator.Runner
	pool   *pgxpool.Pool
	runs   *repo.RunRepo
	mqConn *mq.Connection
	logger *slog.Logger
}

// Bootstrap создаёт App.
//
// overrides — executor'ы для отдельных шагов; остальные шаги
// запускаются как дочерние процессы.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, overrides map[string]worker.Executor) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := ledger.NewStore(cfg.StatusPath())
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Store:   store,
		Metrics: telemetry.NewMetrics(),
		Tracker: api.NewTracker(),
		logger:  logger,
	}
	observers := []orchestrator.Observer{app.Metrics, app.Tracker}

	// PostgreSQL
	if cfg.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database not available, running without history and run lock", "error", err)
		} else {
			logger.Info("database connected")
			app.pool = pool
			if err := repo.EnsureSchema(ctx, pool); err != nil {
				logger.Warn("failed to ensure schema, history disabled", "error", err)
			} else {
				app.runs = repo.NewRunRepo(pool)
				observers = append(observers, repo.NewHistorySink(app.runs))
			}
		}
	}

	// RabbitMQ
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events disabled", "error", err)
		} else {
			logger.Info("RabbitMQ connected")
			app.mqConn = conn
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			observers = append(observers, mq.NewEventSink(mq.NewPublisher(conn, logger)))
		}
	}

	registry := worker.NewRegistry(worker.NewCommandExecutor(cfg.WorkDir))
	for name, executor := range overrides {
		registry.Register(name, executor)
	}

	app.runner = orchestrator.New(orchestrator.Config{
		Steps:      cfg.Steps(),
		Executor:   registry,
		Store:      store,
		Workspaces: cfg.WorkspacePaths(),
		Observers:  observers,
		Logger:     logger,
	})

	return app, nil
}

// Runner возвращает runner.
func (a *App) Runner() *orchestrator.Runner {
	return a.runner
}

// History возвращает репозиторий истории или nil, если PostgreSQL не подключён.
func (a *App) History() *repo.RunRepo {
	return a.runs
}

// RunOnce выполняет один run.
//
// При подключённом PostgreSQL run выполняется под advisory lock;
// если lock держит другой процесс, возвращается repo.ErrLocked
// и status record не трогается.
//
// Отмена ctx не прерывает начатый run.
func (a *App) RunOnce(ctx context.Context) (*orchestrator.RunOutcome, error) {
	if a.pool != nil {
		lock, err := repo.TryAcquireRunLock(ctx, a.pool)
		switch {
		case errors.Is(err, repo.ErrLocked):
			return nil, err
		case err != nil:
			a.logger.Warn("run lock not available, continuing without it", "error", err)
		default:
			defer func() {
				if err := lock.Release(context.Background()); err != nil {
					a.logger.Warn("failed to release run lock", "error", err)
				}
			}()
		}
	}

	outcome := a.runner.Run(context.WithoutCancel(ctx))

	if a.Config.MetricsFile != "" {
		path := a.Config.Resolve(a.Config.MetricsFile)
		if err := a.Metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("failed to write metrics textfile", "path", path, "error", err)
		}
	}

	return outcome, nil
}

// Close освобождает соединения.
func (a *App) Close() {
	if a.mqConn != nil {
		if err := a.mqConn.Close(); err != nil {
			a.logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// lockedError оборачивает repo.ErrLocked в код завершения.
func lockedError(err error, code int) error {
	return &ExitCodeError{Code: code, Err: fmt.Errorf("run not started: %w", err)}
}
