package main

// 消费提交确认消息

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/queue"
	"DignityDialogue/pkg/logger"
	pkgotel "DignityDialogue/pkg/otel"
	"DignityDialogue/pkg/sms"
	"DignityDialogue/storage"
	"DignityDialogue/storage/mq"
	"DignityDialogue/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if cfg.OTelEnabled {
		shutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.ConfigFrom(cfg))
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	if err := storage.Init(cfg, storage.Redis, storage.MQ); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := mq.Declare(queue.Bindings()...); err != nil {
		logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	// 未配置短信通道时只记录日志
	var client sms.Client
	if cfg.SMSConfigured() {
		client, err = sms.NewWithBreaker(cfg, logger.Named("sms"))
		if err != nil {
			logger.Logger.Warn("Failed to initialize SMS transport, confirmations will only be logged", zap.Error(err))
			client = nil
		}
	}

	h := queue.NewConfirmationHandler(cache.New(redis.Client(), redis.Prefix()), client, logger.Named("notifier"))

	logger.Logger.Info("Notifier service starting",
		zap.String("service", cfg.ServiceName+"-notifier"),
		zap.String("environment", cfg.Environment),
		zap.Bool("sms_enabled", client != nil),
	)

	if err := queue.StartConfirmationConsumer(ctx, h); err != nil {
		logger.Logger.Error("Confirmation consumer exited with error", zap.Error(err))
	}

	logger.Logger.Info("Notifier service shutting down gracefully")
}
