package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/internal/model"
	"DignityDialogue/pkg/snowflake"
	"DignityDialogue/storage/mq"
)

// Publisher 确认通知的发布方
type Publisher interface {
	PublishConfirmation(ctx context.Context, msg model.ConfirmationMessage) error
}

type publishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

type MQPublisher struct {
	publish publishFunc
	logger  *zap.Logger
}

func NewPublisher(logger *zap.Logger) *MQPublisher {
	return &MQPublisher{publish: mq.PublishMessage, logger: logger}
}

// PublishConfirmation MessageID 为空时用 snowflake 补齐
func (p *MQPublisher) PublishConfirmation(ctx context.Context, msg model.ConfirmationMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextString()
		if err != nil {
			p.logger.Error("Failed to generate message ID",
				zap.String("request_id", msg.IntakeID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = "confirm_" + id
	}
	if msg.SubmittedAt == "" {
		msg.SubmittedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := p.publish(ctx, IntakeExchange, ConfirmationRoutingKey, msg.MessageID, msg); err != nil {
		p.logger.Error("Failed to publish confirmation message",
			zap.String("message_id", msg.MessageID),
			zap.String("request_id", msg.IntakeID),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("Published confirmation message",
		zap.String("message_id", msg.MessageID),
		zap.String("request_id", msg.IntakeID),
	)
	return nil
}

// NopPublisher 未接入 MQ 时使用
type NopPublisher struct{}

func (NopPublisher) PublishConfirmation(ctx context.Context, msg model.ConfirmationMessage) error {
	return nil
}
