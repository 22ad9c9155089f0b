package cache

import (
	goredis "github.com/redis/go-redis/v9"

	"DignityDialogue/storage/redis"
)

// Cache Redis 上的短期协调状态：分布式锁、token 单次使用、消息去重
type Cache struct {
	rdb    goredis.Cmdable
	prefix string
}

func New(rdb goredis.Cmdable, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

func (c *Cache) key(parts ...string) string {
	return redis.JoinKey(c.prefix, parts...)
}
