package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ride-hail/internal/ports"

	"github.com/redis/go-redis/v9"
)

// CacheAdapter implements ports.Cache over plain Redis string keys (spec
// §4.2/§5: typed get/set/del-with-TTL, plus the SetNX primitive the
// distributed lock builds on).
type CacheAdapter struct {
	client *redis.Client
}

// NewCache constructs a CacheAdapter.
func NewCache(client *redis.Client) ports.Cache {
	return &CacheAdapter{client: client}
}

// Get returns (nil, false, nil) on a clean miss.
func (c *CacheAdapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// MGet returns every present key in the result map; missing keys are
// simply absent, not zero-valued.
func (c *CacheAdapter) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

// Set writes key=value with an optional TTL (ttl<=0 means no expiry).
func (c *CacheAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Del removes one or more keys.
func (c *CacheAdapter) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// SetNX is the atomic compare-and-set primitive the distributed lock (C4)
// is built on.
func (c *CacheAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}
