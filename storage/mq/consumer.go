package mq

import (
	"context"
	stderrors "errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/logger"
	pkgmq "DignityDialogue/pkg/mq"
)

// ErrDropMessage 处理函数返回包装了它的错误时，消息直接丢弃不重投
var ErrDropMessage = stderrors.New("drop message")

type MessageHandler func(ctx context.Context, body []byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费直到 ctx 取消或 channel 关闭
func Consume(ctx context.Context, opts ConsumeOptions) error {
	c := Connection()
	if c == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(
		opts.Queue,
		opts.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log := logger.Named("rabbitmq")
	log.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel for %s closed", opts.Queue)
			}
			handleDelivery(ctx, log, opts, msg)
		}
	}
}

func handleDelivery(ctx context.Context, log *zap.Logger, opts ConsumeOptions, msg amqp.Delivery) {
	msgCtx, span := pkgmq.StartConsumeSpan(ctx, opts.Queue, msg)
	defer span.End()

	err := opts.Handler(msgCtx, msg.Body)
	switch Decide(err) {
	case ActionAck:
		if err != nil {
			log.Info("Skipping message",
				zap.String("queue", opts.Queue),
				zap.String("message_id", msg.MessageId),
				zap.String("reason", err.Error()),
			)
		}
		_ = msg.Ack(false)
	case ActionDrop:
		log.Error("Dropping malformed message",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
	default:
		log.Error("Failed to process message",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
		_ = msg.Nack(false, true)
	}
}

// Action 处理结果对应的应答方式
type Action int

const (
	ActionAck Action = iota
	ActionDrop
	ActionRequeue
)

// Decide nil 和 SkipMessageError 确认，ErrDropMessage 丢弃，其余重投
func Decide(err error) Action {
	switch {
	case err == nil, errors.IsSkip(err):
		return ActionAck
	case stderrors.Is(err, ErrDropMessage):
		return ActionDrop
	default:
		return ActionRequeue
	}
}
