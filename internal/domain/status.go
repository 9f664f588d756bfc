package domain

// RunStatus — состояние выполнения run.
//
// Жизненный цикл:
//
//	INIT → RUNNING(step_i) → RUNNING(step_i+1) → ... → COMPLETED
//	                       ↘ ABORTED (FATAL шаг упал)
//	     ↘ ABORTED (не удалось подготовить workspace)
type RunStatus string

const (
	// RunStatusInit — run создан, выполняется подготовка.
	RunStatusInit RunStatus = "INIT"

	// RunStatusRunning — выполняется один из шагов.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — все шаги выполнены, итоговый код вычислен по правилу агрегации.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusAborted — run остановлен досрочно.
	RunStatusAborted RunStatus = "ABORTED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusAborted:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}
