package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"DignityDialogue/config"
	pkgredis "DignityDialogue/pkg/redis"
)

const defaultPrefix = "dd"

var (
	client *redis.Client
	prefix = defaultPrefix
	once   sync.Once
	err    error
)

func Init(cfg *config.Config) error {
	once.Do(func() {
		if cfg.RedisPrefix != "" {
			prefix = cfg.RedisPrefix
		}

		client = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 5,
			MaxRetries:   3,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err = client.Ping(ctx).Err(); err != nil {
			return
		}

		if cfg.OTelEnabled {
			client.AddHook(pkgredis.NewOTELHook(cfg.ServiceName))
		}
	})

	return err
}

func Client() *redis.Client {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

// Prefix 当前 key 前缀
func Prefix() string {
	return prefix
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}

	return client.Close()
}

// Key 使用全局前缀拼接 key
func Key(parts ...string) string {
	return JoinKey(prefix, parts...)
}

// JoinKey prefix:part1:part2，空段会被跳过
func JoinKey(prefix string, parts ...string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}

	return sb.String()
}
