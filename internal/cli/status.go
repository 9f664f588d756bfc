package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/ledger"
	"github.com/shaiso/corridor/internal/orchestrator"
	"github.com/shaiso/corridor/internal/repo"
)

// NewStatusCmd создаёт команду status.
func NewStatusCmd(deps Deps) *cobra.Command {
	var history int
	var exitCode bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status record of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.Config()
			if err != nil {
				return err
			}
			out := deps.Output()

			if history > 0 {
				return printHistory(cmd, deps, cfg.DatabaseURL, history)
			}

			store, err := ledger.NewStore(cfg.StatusPath())
			if err != nil {
				return err
			}
			results, err := store.Load()
			if errors.Is(err, ledger.ErrNoRecord) {
				return fmt.Errorf("no status record at %s", store.Path())
			}
			if err != nil {
				return err
			}

			summary := orchestrator.Summarize(cfg.Steps(), results)
			printSummary(out, summary)

			if !exitCode {
				return nil
			}
			if !summary.Complete {
				return &ExitCodeError{Code: domain.ExitIncomplete}
			}
			if summary.ExitCode != domain.ExitSuccess {
				return &ExitCodeError{Code: summary.ExitCode}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "Show the last N runs from the database instead (requires DB_URL)")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with the aggregate code derived from the record (75 if the record is incomplete)")

	return cmd
}

func printSummary(out *Output, summary orchestrator.Summary) {
	if out.JSONMode() {
		out.JSON(summary)
		return
	}

	headers := []string{"STEP", "POLICY", "RECORD_KEY", "EXIT_CODE", "RESULT"}
	rows := make([][]string, len(summary.Steps))
	for i, s := range summary.Steps {
		code := "-"
		if s.ExitCode != nil {
			code = strconv.Itoa(*s.ExitCode)
		}
		rows[i] = []string{s.Step, string(s.Policy), s.RecordKey, code, s.Result}
	}
	out.Table(headers, rows)

	var parts []string
	if !summary.Complete {
		parts = append(parts, "incomplete")
	}
	if summary.FatalStep != "" {
		parts = append(parts, "aborted by "+summary.FatalStep)
	}
	if len(summary.ToleratedFailures) > 0 {
		parts = append(parts, "tolerated failures: "+strings.Join(summary.ToleratedFailures, ","))
	}
	msg := fmt.Sprintf("exit code %d", summary.ExitCode)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	out.Info(msg)
}

func printHistory(cmd *cobra.Command, deps Deps, dsn string, limit int) error {
	if dsn == "" {
		return errHistoryDisabled
	}
	out := deps.Output()

	pool, err := repo.NewPool(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	runs, err := repo.NewRunRepo(pool).ListRecent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	headers := []string{"ID", "STATUS", "EXIT_CODE", "FAILED_STEP", "STARTED", "DURATION"}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		failed := r.FailedStep
		if failed == "" {
			failed = "-"
		}
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Second).String()
		}
		rows[i] = []string{
			r.ID.String(),
			r.Status.String(),
			strconv.Itoa(r.ExitCode),
			failed,
			r.StartedAt.Format(time.RFC3339),
			duration,
		}
	}

	out.Print(headers, rows, runs)
	return nil
}
