package cache

import (
	"context"
	"time"
)

const tokenUsedPrefix = "token:used"

// MarkTokenUsed 记录验证 token 已被使用，返回 false 表示此前已用过
// tokenHash 为 token 的摘要，原文不进 Redis
func (c *Cache) MarkTokenUsed(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.key(tokenUsedPrefix, tokenHash), 1, ttl).Result()
}

// ReleaseToken 提交失败时释放 token，允许用户重试
func (c *Cache) ReleaseToken(ctx context.Context, tokenHash string) error {
	return c.rdb.Del(ctx, c.key(tokenUsedPrefix, tokenHash)).Err()
}
