package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/corridor/internal/domain"
)

// Executor — интерфейс для выполнения действия шага.
//
// Execute блокируется до завершения действия.
type Executor interface {
	Execute(ctx context.Context, step domain.Step) (*ExecutionResult, error)
}

// ExecutionResult — результат выполнения действия.
type ExecutionResult struct {
	// ExitCode — код завершения (0 — успех).
	ExitCode int
}

// ExecutorFunc позволяет использовать функцию как Executor.
type ExecutorFunc func(ctx context.Context, step domain.Step) (*ExecutionResult, error)

// Execute вызывает f(ctx, step).
func (f ExecutorFunc) Execute(ctx context.Context, step domain.Step) (*ExecutionResult, error) {
	return f(ctx, step)
}

// Registry — реестр executor'ов по имени шага.
//
// Шаги без явной регистрации выполняются fallback executor'ом.
type Registry struct {
	executors map[string]Executor
	fallback  Executor
}

// NewRegistry создаёт реестр. fallback может быть nil.
func NewRegistry(fallback Executor) *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		fallback:  fallback,
	}
}

// Register задаёт executor для шага.
func (r *Registry) Register(stepName string, executor Executor) {
	r.executors[stepName] = executor
}

// Get возвращает executor для шага.
func (r *Registry) Get(stepName string) (Executor, error) {
	if executor, ok := r.executors[stepName]; ok {
		return executor, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, stepName)
}

// Execute выполняет шаг executor'ом из реестра.
func (r *Registry) Execute(ctx context.Context, step domain.Step) (*ExecutionResult, error) {
	executor, err := r.Get(step.Name)
	if err != nil {
		return nil, err
	}
	return executor.Execute(ctx, step)
}
