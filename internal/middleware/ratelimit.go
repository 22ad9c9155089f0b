package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"DignityDialogue/config"
	"DignityDialogue/pkg/errors"
	"DignityDialogue/pkg/response"
	"DignityDialogue/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 阻塞时长（秒），超过限制后禁止访问的时间，0 表示不阻塞
	BlockDuration int
}

// IntakeRateLimitConfig 提交接口按 IP 限流
func IntakeRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Window:        cfg.RateLimitWindow,
		MaxRequests:   cfg.RateLimitMax,
		KeyPrefix:     "rate:intake",
		BlockDuration: 5 * cfg.RateLimitWindow,
	}
}

// RateLimiter 基于 zset 的滑动窗口限流器
type RateLimiter struct {
	rdb    goredis.Cmdable
	prefix string
	config RateLimitConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(rdb goredis.Cmdable, prefix string, config RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		prefix: prefix,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func (rl *RateLimiter) windowKey(ip string) string {
	return redis.JoinKey(rl.prefix, rl.config.KeyPrefix, "ip", ip)
}

func (rl *RateLimiter) blockKey(ip string) string {
	return redis.JoinKey(rl.prefix, rl.config.KeyPrefix, "block", ip)
}

// Allow 返回是否放行以及当前窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, ip string) (bool, int, error) {
	key := rl.windowKey(ip)
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := rl.rdb.Pipeline()

	// 先移除窗口开始之前的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, ip string) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return rl.rdb.Set(ctx, rl.blockKey(ip), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := rl.rdb.Exists(ctx, rl.blockKey(ip)).Result()
	return n > 0, err
}

// Middleware Redis 故障时放行，只记录日志
func (rl *RateLimiter) Middleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		ip := OriginAddress(c)

		blocked, err := rl.IsBlocked(ctx, ip)
		if err != nil {
			rl.logger.Error("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		allowed, count, err := rl.Allow(ctx, ip)
		if err != nil {
			rl.logger.Error("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := rl.config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(time.Duration(rl.config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := rl.Block(ctx, ip); err != nil {
				rl.logger.Error("Failed to block client", zap.Error(err))
			}
			rl.logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.Int("count", count))

			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}
