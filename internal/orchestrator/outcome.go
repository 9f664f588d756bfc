package orchestrator

import "github.com/shaiso/corridor/internal/domain"

// Outcome — итог run, вычисленный по результатам шагов.
type Outcome struct {
	// ExitCode — итоговый код run.
	ExitCode int

	// FatalStep — FATAL шаг, код которого стал итоговым. Пусто, если такого нет.
	FatalStep string

	// ToleratedFailures — упавшие TOLERATED шаги.
	ToleratedFailures []string
}

// Aborted возвращает true, если run был остановлен FATAL шагом.
func (o Outcome) Aborted() bool {
	return o.FatalStep != ""
}

// Evaluate вычисляет итоговый код run по результатам шагов.
//
// Правила:
//   - Первый FATAL шаг с ненулевым кодом определяет итог: его код передаётся как есть.
//   - Иначе, если упал TOLERATED шаг — domain.ExitWatchdog.
//   - Иначе — domain.ExitSuccess.
//
// Результаты шагов, которых нет в steps, игнорируются.
func Evaluate(steps []domain.Step, results []domain.StepResult) Outcome {
	policies := make(map[string]domain.Policy, len(steps))
	for _, s := range steps {
		policies[s.Name] = s.Policy
	}

	var out Outcome
	for _, r := range results {
		if r.Succeeded() {
			continue
		}

		switch policies[r.StepName] {
		case domain.PolicyFatal:
			out.ExitCode = r.ExitCode
			out.FatalStep = r.StepName
			return out
		case domain.PolicyTolerated:
			out.ToleratedFailures = append(out.ToleratedFailures, r.StepName)
		}
	}

	if len(out.ToleratedFailures) > 0 {
		out.ExitCode = domain.ExitWatchdog
		return out
	}

	out.ExitCode = domain.ExitSuccess
	return out
}
