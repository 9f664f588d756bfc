// Package config собирает конфигурацию runner'а из переменных окружения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/corridor/internal/domain"
)

// Значения по умолчанию.
const (
	DefaultStatusFile = "data/pipeline_status.env"
	DefaultCron       = "0 */6 * * *"
	DefaultTimezone   = "UTC"
	DefaultPort       = "8090"
)

// DefaultWorkspaces — каталоги, в которые пишут мониторы.
var DefaultWorkspaces = []string{"data", "data/history"}

// DefaultActions — команды мониторов по умолчанию.
var DefaultActions = map[string][]string{
	domain.StepRiver: {"python3", "river_monitor.py"},
	domain.StepBarge: {"python3", "barge_monitor.py"},
	domain.StepRail:  {"python3", "rail_monitor.py"},
	domain.StepRisk:  {"python3", "generate_risk.py"},
}

// Config — конфигурация runner'а.
type Config struct {
	// WorkDir — рабочий каталог мониторов; относительные пути считаются от него.
	WorkDir string

	// StatusFile — путь к status record.
	StatusFile string

	// Workspaces — каталоги, создаваемые перед первым шагом.
	Workspaces []string

	// Actions — команда (argv) для каждого шага.
	Actions map[string][]string

	// MetricsFile — путь для Prometheus textfile (пусто — не писать).
	MetricsFile string

	// DatabaseURL — PostgreSQL для истории runs (пусто — отключено).
	DatabaseURL string

	// RabbitMQURL — RabbitMQ для событий (пусто — отключено).
	RabbitMQURL string

	// Cron, Timezone, Port — режим schedule.
	Cron     string
	Timezone string
	Port     string
}

// Load читает конфигурацию из окружения и проверяет её.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom читает конфигурацию через getenv и проверяет её.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := ReadFrom(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read читает конфигурацию из окружения без проверки.
// Вызывающий код применяет свои переопределения и затем вызывает Validate.
func Read() *Config {
	return ReadFrom(os.Getenv)
}

// ReadFrom читает конфигурацию через getenv без проверки.
func ReadFrom(getenv func(string) string) *Config {
	cfg := &Config{
		WorkDir:     envOr(getenv, "CORRIDOR_WORKDIR", "."),
		StatusFile:  envOr(getenv, "CORRIDOR_STATUS_FILE", DefaultStatusFile),
		Workspaces:  DefaultWorkspaces,
		Actions:     make(map[string][]string, len(DefaultActions)),
		MetricsFile: getenv("CORRIDOR_METRICS_FILE"),
		DatabaseURL: getenv("DB_URL"),
		RabbitMQURL: getenv("RABBITMQ_URL"),
		Cron:        envOr(getenv, "CORRIDOR_CRON", DefaultCron),
		Timezone:    envOr(getenv, "CORRIDOR_TZ", DefaultTimezone),
		Port:        envOr(getenv, "CORRIDOR_PORT", DefaultPort),
	}

	if v := getenv("CORRIDOR_WORKSPACE_DIRS"); v != "" {
		cfg.Workspaces = splitList(v)
	}

	for _, def := range domain.StepDefs {
		key := "CORRIDOR_" + strings.ToUpper(def.Name) + "_CMD"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			cfg.Actions[def.Name] = strings.Fields(v)
			continue
		}
		cfg.Actions[def.Name] = DefaultActions[def.Name]
	}

	return cfg
}

// Override применяет переопределения из флагов (пустое значение — без изменений)
// и проверяет итоговую конфигурацию.
func (c *Config) Override(workDir, statusFile string) error {
	if workDir != "" {
		c.WorkDir = workDir
	}
	if statusFile != "" {
		c.StatusFile = statusFile
	}
	return c.Validate()
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StatusFile) == "" {
		return fmt.Errorf("status file path is empty")
	}
	for _, def := range domain.StepDefs {
		if len(c.Actions[def.Name]) == 0 {
			return fmt.Errorf("no action configured for step %s", def.Name)
		}
	}
	return nil
}

// Resolve возвращает path относительно WorkDir (абсолютные пути не меняются).
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkDir, path)
}

// StatusPath возвращает полный путь к status record.
func (c *Config) StatusPath() string {
	return c.Resolve(c.StatusFile)
}

// WorkspacePaths возвращает полные пути workspace.
func (c *Config) WorkspacePaths() []string {
	paths := make([]string, len(c.Workspaces))
	for i, w := range c.Workspaces {
		paths[i] = c.Resolve(w)
	}
	return paths
}

// Steps возвращает упорядоченные шаги с настроенными командами.
func (c *Config) Steps() []domain.Step {
	return domain.BuildSteps(c.Actions)
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
