package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UnreadKeyPrefix = "notify:unread"
	UnreadTTL       = 10 * time.Minute
)

// UnreadCache 未读数缓存，MySQL 为准，写路径只删不改
type UnreadCache struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewUnreadCache(rdb *redis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = UnreadTTL
	}
	return &UnreadCache{RDB: rdb, TTL: ttl}
}

func unreadKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UnreadKeyPrefix, userID)
}

// Get 第二个返回值表示是否命中
func (c *UnreadCache) Get(ctx context.Context, userID uint64) (int64, bool, error) {
	val, err := c.RDB.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// Set 回填
func (c *UnreadCache) Set(ctx context.Context, userID uint64, count int64) error {
	return c.RDB.Set(ctx, unreadKey(userID), count, c.TTL).Err()
}

func (c *UnreadCache) Invalidate(ctx context.Context, userID uint64) error {
	if err := c.RDB.Del(ctx, unreadKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
