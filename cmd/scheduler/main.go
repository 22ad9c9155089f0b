package main

// 常驻调度：每 DISPATCH_INTERVAL 触发一次派发周期，多实例之间用 Redis 锁互斥

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/dispatch"
	"DignityDialogue/internal/schedule"
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
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
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

	// 调度器必须有 Redis，否则无法保证多实例互斥
	if err := storage.Init(cfg, storage.Database, storage.Redis); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	client, err := sms.NewWithBreaker(cfg, logger.Named("sms"))
	if err != nil {
		logger.Logger.Fatal("Failed to initialize SMS transport", zap.Error(err))
	}

	locker := cache.New(redis.Client(), redis.Prefix())
	worker := dispatch.NewWorker(store.NewGormStore(database.DB()), client, logger.Named("dispatch"), dispatch.Options{
		BatchSize: cfg.DispatchBatchSize,
		ClaimTTL:  cfg.DispatchLockTTL,
		Locker:    locker,
		Metrics:   metrics.Default(),
	})

	interval := cfg.DispatchInterval
	if cfg.IsDevelopment() && interval > time.Minute {
		interval = time.Minute
		logger.Logger.Info("Dispatch scheduler running in development mode with 1m interval")
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", cfg.ServiceName+"-scheduler"),
		zap.String("environment", cfg.Environment),
		zap.Duration("interval", interval),
	)

	s := schedule.NewDispatchScheduler(worker, locker, cfg.DispatchLockTTL, logger.Named("scheduler"))
	s.Run(ctx, interval)

	logger.Logger.Info("Scheduler service shutting down gracefully")
}
