// Package mq публикует события pipeline в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация сообщений
//   - events.go     — EventSink: observer runner'а, публикующий события шагов и runs
//
// Типы сообщений:
//   - step.finished — шаг завершён (имя, код, policy)
//   - run.finished  — run завершён (статус, итоговый код, упавший шаг)
//
// Exchanges:
//   - corridor.runs — события runs (direct)
//
// RabbitMQ опционален: если RABBITMQ_URL не задан или брокер недоступен,
// runner работает без событий.
package mq
