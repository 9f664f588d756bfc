package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/corridor/internal/domain"
)

const metricsNamespace = "corridor"

// Metrics — Prometheus метрики pipeline.
//
// Каждый Metrics держит собственный registry, поэтому
// в тестах можно создавать несколько экземпляров.
type Metrics struct {
	registry *prometheus.Registry

	stepRuns     *prometheus.CounterVec
	stepExitCode *prometheus.GaugeVec
	stepDuration *prometheus.HistogramVec

	runs            *prometheus.CounterVec
	runExitCode     prometheus.Gauge
	runDuration     prometheus.Gauge
	lastRunFinished prometheus.Gauge
}

// NewMetrics создаёт и регистрирует метрики.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stepRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "step_runs_total",
			Help:      "Total number of step executions by result.",
		}, []string{"step", "policy", "result"}),
		stepExitCode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "step_last_exit_code",
			Help:      "Exit code of the last execution of a step.",
		}, []string{"step"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of step actions.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"step"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Total number of finished runs by status and exit code.",
		}, []string{"status", "exit_code"}),
		runExitCode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_last_exit_code",
			Help:      "Aggregate exit code of the last run.",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_last_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		lastRunFinished: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_last_finished_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// Registry возвращает registry метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP handler для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile пишет метрики в файл формата node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RunStarted ничего не делает: метрики run пишутся по завершении.
func (m *Metrics) RunStarted(_ context.Context, _ *domain.Run) error {
	return nil
}

// StepFinished обновляет метрики шага.
func (m *Metrics) StepFinished(_ context.Context, _ *domain.Run, step domain.Step, result domain.StepResult) error {
	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}

	m.stepRuns.WithLabelValues(step.Name, step.Policy.String(), outcome).Inc()
	m.stepExitCode.WithLabelValues(step.Name).Set(float64(result.ExitCode))
	m.stepDuration.WithLabelValues(step.Name).Observe(result.Duration().Seconds())
	return nil
}

// RunFinished обновляет метрики run.
func (m *Metrics) RunFinished(_ context.Context, run *domain.Run) error {
	m.runs.WithLabelValues(run.Status.String(), strconv.Itoa(run.ExitCode)).Inc()
	m.runExitCode.Set(float64(run.ExitCode))
	m.runDuration.Set(run.Duration().Seconds())
	if run.FinishedAt != nil {
		m.lastRunFinished.Set(float64(run.FinishedAt.Unix()))
	}
	return nil
}
