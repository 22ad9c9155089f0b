package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"DignityDialogue/config"
)

var (
	conn     *amqp.Connection
	connMu   sync.RWMutex
	initOnce sync.Once
	initErr  error
)

func Init(cfg *config.Config) error {
	initOnce.Do(func() {
		c, err := amqp.Dial(cfg.GetRabbitMQURL())
		if err != nil {
			initErr = fmt.Errorf("failed to dial rabbitmq: %w", err)
			return
		}

		connMu.Lock()
		conn = c
		connMu.Unlock()
	})

	return initErr
}

func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

// Close 先关发布 channel 再关连接
func Close(ctx context.Context) error {
	closePublisherChannel()

	connMu.Lock()
	c := conn
	conn = nil
	connMu.Unlock()

	if c == nil || c.IsClosed() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
