package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/pkg/logger"
	"DignityDialogue/storage/database"
	"DignityDialogue/storage/mq"
	"DignityDialogue/storage/redis"
)

// Close 关闭顺序：MQ -> Redis -> Database，未初始化的组件直接跳过
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log := logger.Named("storage")
	log.Info("Closing storage connections...")

	closers := []struct {
		name  string
		close func(context.Context) error
	}{
		{"message queue", mq.Close},
		{"redis", redis.Close},
		{"database", database.Close},
	}

	for _, c := range closers {
		if err := c.close(ctx); err != nil {
			log.Error("Failed to close "+c.name, zap.Error(err))
			continue
		}
		log.Info("Closed " + c.name)
	}

	log.Info("All storage connections closed")
}
