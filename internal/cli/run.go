package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/orchestrator"
	"github.com/shaiso/corridor/internal/repo"
)

// runReport — JSON вывод команды run.
type runReport struct {
	Run     *domain.Run          `json:"run"`
	Results []domain.StepResult  `json:"results"`
	Summary orchestrator.Summary `json:"summary"`
}

// NewRunCmd создаёт команду run.
func NewRunCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Runs river, barge, rail and risk in order and exits with the aggregate code:
  0    all steps succeeded
  1    rail failed (watchdog)
  N    a FATAL step exited with N; later steps are not run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.Config()
			if err != nil {
				return &ExitCodeError{Code: domain.ExitSetupFailure, Err: err}
			}
			out := deps.Output()

			app, err := Bootstrap(cmd.Context(), cfg, deps.logger(), deps.Executors)
			if err != nil {
				return &ExitCodeError{Code: domain.ExitSetupFailure, Err: err}
			}
			defer app.Close()

			outcome, err := app.RunOnce(cmd.Context())
			if errors.Is(err, repo.ErrLocked) {
				return lockedError(err, domain.ExitSetupFailure)
			}
			if err != nil {
				return &ExitCodeError{Code: domain.ExitSetupFailure, Err: err}
			}

			printRunOutcome(out, app.Runner().Steps(), outcome)

			if code := outcome.ExitCode(); code != domain.ExitSuccess {
				return &ExitCodeError{Code: code}
			}
			return nil
		},
	}

	return cmd
}

func printRunOutcome(out *Output, steps []domain.Step, outcome *orchestrator.RunOutcome) {
	summary := orchestrator.Summarize(steps, outcome.Results)

	if out.JSONMode() {
		out.JSON(runReport{Run: outcome.Run, Results: outcome.Results, Summary: summary})
		return
	}

	durations := make(map[string]time.Duration, len(outcome.Results))
	for _, r := range outcome.Results {
		durations[r.StepName] = r.Duration()
	}

	headers := []string{"STEP", "POLICY", "EXIT_CODE", "RESULT", "DURATION"}
	rows := make([][]string, 0, len(summary.Steps))
	for _, s := range summary.Steps {
		code, duration := "-", "-"
		if s.ExitCode != nil {
			code = strconv.Itoa(*s.ExitCode)
			duration = durations[s.Step].Round(time.Millisecond).String()
		}
		rows = append(rows, []string{s.Step, string(s.Policy), code, s.Result, duration})
	}
	out.Table(headers, rows)

	run := outcome.Run
	msg := fmt.Sprintf("run %s %s, exit code %d", run.ID, run.Status, run.ExitCode)
	if run.Error != "" {
		msg += ": " + run.Error
	}
	out.Info(msg)
}
