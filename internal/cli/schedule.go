package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/corridor/internal/api"
	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/repo"
	"github.com/shaiso/corridor/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// NewScheduleCmd создаёт команду schedule.
func NewScheduleCmd(deps Deps) *cobra.Command {
	var cronExpr, timezone, port string
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule and serve status over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.Config()
			if err != nil {
				return err
			}
			if cronExpr != "" {
				cfg.Cron = cronExpr
			}
			if timezone != "" {
				cfg.Timezone = timezone
			}
			if port != "" {
				cfg.Port = port
			}

			if err := scheduler.ValidateCronExpr(cfg.Cron); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := deps.logger()

			app, err := Bootstrap(ctx, cfg, logger, deps.Executors)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := scheduler.New(scheduler.Config{
				CronExpr:   cfg.Cron,
				Timezone:   cfg.Timezone,
				RunOnStart: runOnStart,
				Logger:     logger,
				RunFunc: func(ctx context.Context) int {
					outcome, err := app.RunOnce(ctx)
					if err != nil {
						if errors.Is(err, repo.ErrLocked) {
							logger.Warn("run skipped, another run is in progress", "error", err)
						} else {
							logger.Error("run failed to start", "error", err)
						}
						return domain.ExitSetupFailure
					}
					return outcome.ExitCode()
				},
			})
			if err != nil {
				return err
			}

			handlerCfg := api.Config{
				Steps:   app.Runner().Steps(),
				Status:  app.Store,
				Tracker: app.Tracker,
				Metrics: app.Metrics.Handler(),
				Logger:  logger,
			}
			if runs := app.History(); runs != nil {
				handlerCfg.History = runs
			}

			mux := http.NewServeMux()
			api.NewHandler(handlerCfg).RegisterRoutes(mux)

			srv := &http.Server{
				Addr:              net.JoinHostPort("", cfg.Port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
					serveErr <- err
					cancel()
				}
			}()

			err = sched.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer shutdownCancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("http server shutdown", "error", serr)
			}

			select {
			case serr := <-serveErr:
				return serr
			default:
			}

			if errors.Is(err, context.Canceled) {
				logger.Info("corridor schedule stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (default from CORRIDOR_CRON)")
	cmd.Flags().StringVar(&timezone, "tz", "", "Timezone for the cron expression (default from CORRIDOR_TZ)")
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (default from CORRIDOR_PORT)")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the pipeline immediately on start")

	return cmd
}
