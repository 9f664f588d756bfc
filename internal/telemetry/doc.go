// Package telemetry обеспечивает наблюдаемость runner'а.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и runs
//
// Метрики отдаются на /metrics в режиме schedule и, если задан
// CORRIDOR_METRICS_FILE, пишутся в textfile после каждого run.
package telemetry
