package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache is a read-through cache of per-user unread message counts in Redis.
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUnreadCache connects to redisURL and verifies the connection.
func NewUnreadCache(ctx context.Context, redisURL string, ttl time.Duration) (*UnreadCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewUnreadCacheWithClient(client, ttl), nil
}

// NewUnreadCacheWithClient wraps an existing client.
func NewUnreadCacheWithClient(client *redis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &UnreadCache{client: client, ttl: ttl}
}

func unreadKey(userID int) string {
	return "unread:" + strconv.Itoa(userID)
}

// Get returns the cached count and whether it was present.
func (c *UnreadCache) Get(ctx context.Context, userID int) (int, bool, error) {
	val, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// Set stores a count for the configured TTL.
func (c *UnreadCache) Set(ctx context.Context, userID int, count int) error {
	return c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err()
}

// Invalidate drops the cached counts of the given users.
func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...int) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, unreadKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection.
func (c *UnreadCache) Close() error {
	return c.client.Close()
}
