package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps member views in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, memberID string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, memberKey(memberID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached member %s: %w", memberID, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached member %s: %w", memberID, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, memberID string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode member %s: %w", memberID, err)
	}

	if err := c.client.Set(ctx, memberKey(memberID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache member %s: %w", memberID, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, memberIDs ...string) error {
	if len(memberIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		keys = append(keys, memberKey(id))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to invalidate members: %w", err)
	}
	return nil
}
