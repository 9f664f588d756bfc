package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/telemetry"
)

// CommandExecutor запускает Step.Action как дочерний процесс.
//
// Вывод процесса идёт в Stdout/Stderr runner'а, чтобы попасть
// в тот же лог. Процесс получает окружение runner'а плюс
// CORRIDOR_RUN_ID и CORRIDOR_STEP.
type CommandExecutor struct {
	// Dir — рабочий каталог процесса (пусто — текущий каталог).
	Dir string

	// Stdout, Stderr — куда направить вывод (nil — os.Stdout / os.Stderr).
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandExecutor создаёт CommandExecutor с рабочим каталогом dir.
func NewCommandExecutor(dir string) *CommandExecutor {
	return &CommandExecutor{Dir: dir}
}

// Execute запускает команду и ждёт её завершения.
//
// Ненулевой код возвращается в ExecutionResult без ошибки.
// Процесс, убитый сигналом N, получает код 128+N.
func (e *CommandExecutor) Execute(ctx context.Context, step domain.Step) (*ExecutionResult, error) {
	if len(step.Action) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAction, step.Name)
	}

	// exec.Command, а не CommandContext: запущенное действие не прерывается.
	cmd := exec.Command(step.Action[0], step.Action[1:]...)
	cmd.Dir = e.Dir
	cmd.Stdout = e.stdout()
	cmd.Stderr = e.stderr()
	cmd.Env = append(os.Environ(),
		"CORRIDOR_STEP="+step.Name,
	)
	if runID := telemetry.RunIDFromContext(ctx); runID != "" {
		cmd.Env = append(cmd.Env, "CORRIDOR_RUN_ID="+runID)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, step.Name, err)
	}

	err := cmd.Wait()
	if err == nil {
		return &ExecutionResult{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%w: %s: wait: %v", ErrLaunchFailed, step.Name, err)
	}

	return &ExecutionResult{ExitCode: exitCode(exitErr)}, nil
}

// exitCode извлекает код завершения, учитывая завершение по сигналу.
func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return domain.ExitSignalBase + int(status.Signal())
	}
	return exitErr.ExitCode()
}

func (e *CommandExecutor) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *CommandExecutor) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
