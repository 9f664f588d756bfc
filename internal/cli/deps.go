package cli

import (
	"log/slog"

	"github.com/shaiso/corridor/internal/config"
	"github.com/shaiso/corridor/internal/worker"
)

// Deps — зависимости команд, создаваемые после парсинга флагов.
type Deps struct {
	Config func() (*config.Config, error)
	Logger func() *slog.Logger
	Output func() *Output

	// Executors — executor'ы для отдельных шагов (nil — все шаги запускаются процессами).
	Executors map[string]worker.Executor
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger()
}
