package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/internal/model"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/sms"
	"DignityDialogue/storage/mq"
	"DignityDialogue/utils"
)

const confirmationText = "Hi %s, your intake form has been received and will be processed soon. - Dignity Dialogue"

// Deduper 按 message_id 去重，由 cache.Cache 实现
type Deduper interface {
	TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	UnmarkMessageProcessing(ctx context.Context, messageID string) error
	MarkMessageProcessed(ctx context.Context, messageID string) error
}

// ConfirmationHandler 处理提交确认消息。
// sms 为空时只记日志；联系方式不是 E.164 号码时同样只记日志。
type ConfirmationHandler struct {
	dedup  Deduper
	sms    sms.Client
	logger *zap.Logger
}

func NewConfirmationHandler(dedup Deduper, client sms.Client, logger *zap.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{dedup: dedup, sms: client, logger: logger}
}

func (h *ConfirmationHandler) Handle(ctx context.Context, body []byte) error {
	var msg model.ConfirmationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: failed to unmarshal confirmation message: %v", mq.ErrDropMessage, err)
	}
	if msg.MessageID == "" || msg.IntakeID == "" {
		return fmt.Errorf("%w: confirmation message missing message_id or intake_id", mq.ErrDropMessage)
	}

	log := h.logger.With(
		zap.String("message_id", msg.MessageID),
		zap.String("request_id", msg.IntakeID),
	)

	if h.dedup != nil {
		first, err := h.dedup.TryMarkMessageProcessing(ctx, msg.MessageID, 0)
		if err != nil {
			// 去重失败不阻塞，可能重复发送一次确认
			log.Warn("Failed to check message processed status", zap.Error(err))
		} else if !first {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}
	}

	if err := h.deliver(ctx, log, msg); err != nil {
		if h.dedup != nil {
			if unmarkErr := h.dedup.UnmarkMessageProcessing(ctx, msg.MessageID); unmarkErr != nil {
				log.Warn("Failed to unmark message", zap.Error(unmarkErr))
			}
		}
		return fmt.Errorf("failed to deliver confirmation: %w", err)
	}

	if h.dedup != nil {
		if err := h.dedup.MarkMessageProcessed(ctx, msg.MessageID); err != nil {
			log.Warn("Failed to mark message as processed", zap.Error(err))
		}
	}
	return nil
}

func (h *ConfirmationHandler) deliver(ctx context.Context, log *zap.Logger, msg model.ConfirmationMessage) error {
	if h.sms == nil || !utils.ValidatePhone(msg.RequesterContact) {
		log.Info("Intake confirmation recorded",
			zap.String("requester", msg.RequesterName),
			zap.String("submitted_at", msg.SubmittedAt),
		)
		return nil
	}

	resp, err := h.sms.Send(ctx, msg.RequesterContact, fmt.Sprintf(confirmationText, msg.RequesterName))
	if err != nil {
		return err
	}

	log.Info("Intake confirmation sent",
		zap.String("phone", utils.MaskPhone(msg.RequesterContact)),
		zap.String("provider_message_id", resp.MessageID),
	)
	return nil
}

// StartConfirmationConsumer 阻塞直到 ctx 取消
func StartConfirmationConsumer(ctx context.Context, h *ConfirmationHandler) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         ConfirmationQueue,
		ConsumerTag:   confirmationConsumerTag,
		PrefetchCount: 10,
		Handler:       h.Handle,
	})
}
