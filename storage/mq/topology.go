package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Binding 一个 exchange 到 queue 的绑定
type Binding struct {
	Exchange     string
	ExchangeType string
	Queue        string
	RoutingKey   string
}

// Declare 幂等地声明 durable exchange / queue 并绑定
func Declare(bindings ...Binding) error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	for _, b := range bindings {
		kind := b.ExchangeType
		if kind == "" {
			kind = amqp.ExchangeTopic
		}

		if err := ch.ExchangeDeclare(b.Exchange, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", b.Exchange, err)
		}
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.Queue, err)
		}
	}

	return nil
}
