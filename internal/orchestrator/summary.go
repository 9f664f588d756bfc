package orchestrator

import "github.com/shaiso/corridor/internal/domain"

// Результат шага в сводке.
const (
	StepResultOK      = "ok"
	StepResultFailed  = "failed"
	StepResultNotRun  = "not_run"
	StepResultUnknown = "unknown"
)

// StepSummary — строка сводки по одному шагу.
type StepSummary struct {
	Step      string        `json:"step"`
	Policy    domain.Policy `json:"policy,omitempty"`
	RecordKey string        `json:"record_key"`
	ExitCode  *int          `json:"exit_code,omitempty"`
	Result    string        `json:"result"`
}

// Summary — сводка по status record.
type Summary struct {
	Steps             []StepSummary `json:"steps"`
	ExitCode          int           `json:"exit_code"`
	FatalStep         string        `json:"fatal_step,omitempty"`
	ToleratedFailures []string      `json:"tolerated_failures,omitempty"`

	// Complete — true, если record содержит все шаги или run был остановлен FATAL шагом.
	Complete bool `json:"complete"`
}

// Summarize строит сводку по шагам pipeline и результатам из status record.
//
// Шаги идут в порядке pipeline, шаги без записи помечаются not_run.
// Записи для неизвестных шагов добавляются в конец с результатом unknown.
func Summarize(steps []domain.Step, results []domain.StepResult) Summary {
	byName := make(map[string]domain.StepResult, len(results))
	for _, r := range results {
		byName[r.StepName] = r
	}

	known := make(map[string]bool, len(steps))
	summary := Summary{Steps: make([]StepSummary, 0, len(steps))}
	executed := 0
	for _, step := range steps {
		known[step.Name] = true
		row := StepSummary{
			Step:      step.Name,
			Policy:    step.Policy,
			RecordKey: step.RecordKey(),
			Result:    StepResultNotRun,
		}
		if r, ok := byName[step.Name]; ok {
			executed++
			code := r.ExitCode
			row.ExitCode = &code
			row.Result = StepResultOK
			if !r.Succeeded() {
				row.Result = StepResultFailed
			}
		}
		summary.Steps = append(summary.Steps, row)
	}

	for _, r := range results {
		if known[r.StepName] {
			continue
		}
		code := r.ExitCode
		summary.Steps = append(summary.Steps, StepSummary{
			Step:      r.StepName,
			RecordKey: domain.RecordKey(r.StepName),
			ExitCode:  &code,
			Result:    StepResultUnknown,
		})
	}

	outcome := Evaluate(steps, results)
	summary.ExitCode = outcome.ExitCode
	summary.FatalStep = outcome.FatalStep
	summary.ToleratedFailures = outcome.ToleratedFailures
	summary.Complete = executed == len(steps) || outcome.Aborted()

	return summary
}
