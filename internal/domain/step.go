package domain

import "strings"

// Policy — политика обработки ошибки шага.
type Policy string

const (
	// PolicyFatal — ненулевой код шага останавливает pipeline,
	// код шага становится итоговым кодом run.
	PolicyFatal Policy = "FATAL"

	// PolicyTolerated — ненулевой код записывается, pipeline продолжается.
	// Влияет только на итоговый код (watchdog).
	PolicyTolerated Policy = "TOLERATED"
)

// String возвращает строковое представление Policy.
func (p Policy) String() string {
	return string(p)
}

// Имена шагов pipeline.
const (
	StepRiver = "river"
	StepBarge = "barge"
	StepRail  = "rail"
	StepRisk  = "risk"
)

// Step — один этап pipeline.
//
// Шаги определяются один раз, до начала run, и не меняются
// в течение его выполнения.
type Step struct {
	// Name — идентификатор шага ("river", "barge", ...).
	Name string `json:"name"`

	// Action — команда внешнего монитора (argv), запускается без дополнительных аргументов.
	Action []string `json:"action"`

	// Policy — политика обработки ошибки.
	Policy Policy `json:"policy"`
}

// RecordKey возвращает ключ шага в status record: "RIVER_RC".
func (s Step) RecordKey() string {
	return RecordKey(s.Name)
}

// RecordKey возвращает ключ status record для имени шага.
func RecordKey(name string) string {
	return strings.ToUpper(name) + "_RC"
}

// StepDefs — фиксированный порядок шагов и их политики.
//
// Порядок и политики не настраиваются во время выполнения,
// настраивается только команда (Action) каждого шага.
var StepDefs = []struct {
	Name   string
	Policy Policy
}{
	{StepRiver, PolicyFatal},
	{StepBarge, PolicyFatal},
	{StepRail, PolicyTolerated},
	{StepRisk, PolicyFatal},
}

// PolicyOf возвращает политику шага по имени.
func PolicyOf(name string) (Policy, bool) {
	for _, def := range StepDefs {
		if def.Name == name {
			return def.Policy, true
		}
	}
	return "", false
}

// BuildSteps собирает упорядоченный список шагов.
// actions — команда для каждого шага по имени; шаг без команды получает пустой Action
// (запуск такого шага завершится ошибкой запуска).
func BuildSteps(actions map[string][]string) []Step {
	steps := make([]Step, 0, len(StepDefs))
	for _, def := range StepDefs {
		action := append([]string(nil), actions[def.Name]...)
		steps = append(steps, Step{
			Name:   def.Name,
			Action: action,
			Policy: def.Policy,
		})
	}
	return steps
}
