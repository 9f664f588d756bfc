// corridor — последовательный runner мониторов коридора.
//
// Использование:
//
//	corridor [--workdir DIR] [--status-file PATH] [--json] <command> [flags]
//
// Команды:
//
//	run       Один run pipeline; код завершения = итоговый код run
//	status    Status record последнего run
//	steps     Шаги pipeline, политики и команды
//	schedule  Run по cron расписанию + HTTP /healthz, /metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/corridor/internal/cli"
	"github.com/shaiso/corridor/internal/config"
	"github.com/shaiso/corridor/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// exitUsage — код завершения при ошибке аргументов или конфигурации.
const exitUsage = 2

func main() {
	os.Exit(run())
}

func run() int {
	var workDir, statusFile string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "corridor",
		Short:         "corridor — sequential runner for corridor monitors",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "Working directory for step actions (overrides CORRIDOR_WORKDIR)")
	rootCmd.PersistentFlags().StringVar(&statusFile, "status-file", "", "Status record path (overrides CORRIDOR_STATUS_FILE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	var logger *slog.Logger
	deps := cli.Deps{
		Config: func() (*config.Config, error) {
			cfg := config.Read()
			if err := cfg.Override(workDir, statusFile); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Logger: func() *slog.Logger {
			if logger == nil {
				logger = telemetry.SetupLoggerTo(os.Stderr)
			}
			return logger
		},
		Output: func() *cli.Output { return cli.NewOutput(jsonOutput) },
	}

	rootCmd.AddCommand(
		cli.NewRunCmd(deps),
		cli.NewStatusCmd(deps),
		cli.NewStepsCmd(deps),
		cli.NewScheduleCmd(deps),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code := cli.ExitCode(err, exitUsage)
		var exitErr *cli.ExitCodeError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return code
	}
	return 0
}
