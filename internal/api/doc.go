// Package api — HTTP интерфейс runner'а в режиме schedule.
//
// Только чтение:
//   - GET /healthz            — liveness
//   - GET /metrics            — Prometheus метрики
//   - GET /api/v1/status      — текущий status record и вычисленный по нему итог
//   - GET /api/v1/runs/last   — последний завершённый run этого процесса
//   - GET /api/v1/runs        — история runs (если настроен PostgreSQL)
//   - GET /api/v1/runs/{id}   — run и результаты его шагов
//
// Запустить pipeline через API нельзя: runs создаёт только планировщик.
package api
