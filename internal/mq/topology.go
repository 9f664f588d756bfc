package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeRuns — обменник событий pipeline.
const ExchangeRuns Exchange = "corridor.runs"

// Queues — имена очередей.
const (
	QueueStepsFinished Queue = "corridor.steps.finished"
	QueueRunsFinished  Queue = "corridor.runs.finished"
)

// Routing keys.
const (
	RoutingKeyStepFinished RoutingKey = "step.finished"
	RoutingKeyRunFinished  RoutingKey = "run.finished"
)

// SetupTopology объявляет exchange, очереди и привязки. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeRuns), // name
			"direct",             // type
			true,                 // durable
			false,                // auto-deleted
			false,                // internal
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeRuns, err)
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
		}{
			{QueueStepsFinished, RoutingKeyStepFinished},
			{QueueRunsFinished, RoutingKeyRunFinished},
		}

		for _, b := range bindings {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(ExchangeRuns), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeRuns, err)
			}
		}

		return nil
	})
}
