package mq

import "errors"

// ErrNotConnected — нет открытого канала RabbitMQ.
var ErrNotConnected = errors.New("rabbitmq channel not available")
