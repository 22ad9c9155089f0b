package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	messageProcessedPrefix = "message:processed"

	processingTTL = 24 * time.Hour
	processedTTL  = 48 * time.Hour
)

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理
// 返回 true 表示首次处理，false 表示重复消息或正在处理
func (c *Cache) TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = processingTTL
	}

	ok, err := c.rdb.SetNX(ctx, c.key(messageProcessedPrefix, messageID), "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkMessageProcessing 处理失败时取消标记，允许重投后再处理
func (c *Cache) UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	if err := c.rdb.Del(ctx, c.key(messageProcessedPrefix, messageID)).Err(); err != nil {
		return fmt.Errorf("failed to unmark message processing: %w", err)
	}
	return nil
}

// MarkMessageProcessed 处理完成，延长去重标记
func (c *Cache) MarkMessageProcessed(ctx context.Context, messageID string) error {
	if err := c.rdb.Set(ctx, c.key(messageProcessedPrefix, messageID), "processed", processedTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark message as processed: %w", err)
	}
	return nil
}
