// Package cli реализует команды corridor.
//
// # Обзор
//
// Каждая команда создаётся фабричной функцией (NewRunCmd, NewStatusCmd,
// NewStepsCmd, NewScheduleCmd), принимающей Deps — замыкания для ленивого
// создания конфигурации, логгера и Output после парсинга PersistentFlags.
//
// # Команды
//
//   - run      — один run pipeline; код завершения процесса = итоговый код run
//   - status   — status record последнего run и итог, вычисленный по нему
//   - steps    — шаги pipeline, их политики и команды
//   - schedule — run по cron расписанию + HTTP /healthz, /metrics, /api/v1/*
//
// # App
//
// App собирает runner и его observers: Prometheus метрики всегда,
// PostgreSQL историю и advisory lock при заданном DB_URL, события RabbitMQ
// при заданном RABBITMQ_URL. Недоступность БД или брокера не мешает run:
// соответствующий observer просто не подключается.
//
// # Output
//
// Данные выводятся в stdout (таблица или JSON с --json),
// сообщения и логи — в stderr.
package cli
