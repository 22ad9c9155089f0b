package main

// 单次派发：处理一页 queued 请求后退出，由外部定时任务触发

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/dispatch"
	"DignityDialogue/internal/store"
	"DignityDialogue/pkg/logger"
	"DignityDialogue/pkg/metrics"
	pkgotel "DignityDialogue/pkg/otel"
	"DignityDialogue/pkg/sms"
	"DignityDialogue/storage"
	"DignityDialogue/storage/database"
	"DignityDialogue/storage/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("ERROR: failed to load config: %v", err)
		return 1
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

	if err := storage.Init(cfg, storage.Database); err != nil {
		logger.Logger.Error("Failed to initialize store", zap.Error(err))
		return 1
	}
	defer storage.Close()

	opts := dispatch.Options{
		BatchSize: cfg.DispatchBatchSize,
		ClaimTTL:  cfg.DispatchLockTTL,
		Metrics:   metrics.Default(),
	}

	// Redis 不可用时不做认领，依赖外部调度保证单实例
	if err := storage.Init(cfg, storage.Redis); err != nil {
		logger.Logger.Warn("Redis unavailable, dispatching without claim lock", zap.Error(err))
	} else {
		opts.Locker = cache.New(redis.Client(), redis.Prefix())
	}

	client, err := sms.NewWithBreaker(cfg, logger.Named("sms"))
	if err != nil {
		logger.Logger.Error("Failed to initialize SMS transport", zap.Error(err))
		return 1
	}

	logger.Logger.Info("Dispatch worker starting",
		zap.String("service", cfg.ServiceName+"-worker"),
		zap.String("environment", cfg.Environment),
		zap.String("sms_provider", client.Provider()),
	)

	worker := dispatch.NewWorker(store.NewGormStore(database.DB()), client, logger.Named("dispatch"), opts)
	if _, err := worker.RunCycle(ctx); err != nil {
		logger.Logger.Error("Dispatch cycle failed", zap.Error(err))
		return 1
	}

	return 0
}
