package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const lockPrefix = "lock"

// 只删除自己持有的锁
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 一把已获取的锁
type Lock struct {
	key   string
	owner string
}

// TryLock SETNX 获取锁，已被占用时返回 nil, nil
func (c *Cache) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	l := &Lock{key: c.key(lockPrefix, name), owner: uuid.NewString()}

	ok, err := c.rdb.SetNX(ctx, l.key, l.owner, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return l, nil
}

// Unlock 释放锁，锁已过期或被别人持有时什么都不做
func (c *Cache) Unlock(ctx context.Context, l *Lock) error {
	if l == nil {
		return nil
	}
	return unlockScript.Run(ctx, c.rdb, []string{l.key}, l.owner).Err()
}
