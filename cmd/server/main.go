package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	appconfig "DignityDialogue/config"
	"DignityDialogue/internal/cache"
	"DignityDialogue/internal/handler"
	"DignityDialogue/internal/middleware"
	"DignityDialogue/internal/queue"
	"DignityDialogue/internal/router"
	"DignityDialogue/internal/service"
	"DignityDialogue/internal/store"
	"DignityDialogue/pkg/captcha"
	"DignityDialogue/pkg/logger"
	"DignityDialogue/pkg/metrics"
	pkgotel "DignityDialogue/pkg/otel"
	"DignityDialogue/pkg/snowflake"
	"DignityDialogue/storage"
	"DignityDialogue/storage/database"
	"DignityDialogue/storage/mq"
	"DignityDialogue/storage/redis"
)

func main() {
	cfg, err := appconfig.Load()
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

	// 数据库必需，Redis 与 MQ 缺失时降级
	if err := storage.Init(cfg, storage.Database); err != nil {
		logger.Logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	gate, err := captcha.New(cfg, logger.Named("captcha"))
	if err != nil {
		logger.Logger.Fatal("Failed to initialize human verification", zap.Error(err))
	}

	opts := service.IntakeOptions{
		Metrics:  metrics.Default(),
		TokenTTL: cfg.CaptchaTokenTTL,
	}
	routes := router.Options{
		Global: []app.HandlerFunc{
			middleware.RecoverMiddleware(logger.Named("recover"), cfg.IsProduction()),
			middleware.CORSMiddleware(),
		},
	}

	if err := storage.Init(cfg, storage.Redis); err != nil {
		logger.Logger.Warn("Redis unavailable, rate limiting and token replay checks disabled", zap.Error(err))
	} else {
		opts.Tokens = cache.New(redis.Client(), redis.Prefix())
		if cfg.RateLimitEnabled {
			limiter := middleware.NewRateLimiter(redis.Client(), redis.Prefix(), middleware.IntakeRateLimitConfig(cfg), logger.Named("ratelimit"))
			routes.IntakeLimiter = limiter.Middleware()
		}
	}

	if err := storage.Init(cfg, storage.MQ); err != nil {
		logger.Logger.Warn("RabbitMQ unavailable, intake confirmations disabled", zap.Error(err))
	} else if err := mq.Declare(queue.Bindings()...); err != nil {
		logger.Logger.Warn("Failed to declare queue topology, intake confirmations disabled", zap.Error(err))
	} else {
		opts.Publisher = queue.NewPublisher(logger.Named("queue"))
	}

	svc := service.NewIntakeService(store.NewGormStore(database.DB()), gate, logger.Named("intake"), opts)

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	serverOpts := []config.Option{server.WithHostPorts(addr)}

	if cfg.OTelEnabled {
		tracer, tracingMw := middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracer)

		otelMw, err := middleware.OpenTelemetryMiddleware(nil)
		if err != nil {
			logger.Logger.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
		}
		routes.Global = append(routes.Global, tracingMw, otelMw)
	}

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
	)

	h := server.Default(serverOpts...)
	router.Register(h, handler.NewIntakeHandler(svc, logger.Named("handler")), routes)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	// 等待确认通知发完再关 MQ
	svc.Wait()

	logger.Logger.Info("Server shutting down gracefully")
}
