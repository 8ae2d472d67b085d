package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
)

// DashboardCache stores built dashboards by generation and range key.
// Callers read the generation before loading data and write under that same
// generation, so a dashboard built before an invalidation is never served after it.
type DashboardCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, rangeKey string) (*analytics.Dashboard, bool, error)
	Set(ctx context.Context, gen int64, rangeKey string, d *analytics.Dashboard) error
	Invalidate(ctx context.Context) error
}

// RedisDashboardCache keys entries by a generation counter so that one INCR
// invalidates every cached range at once. Old generations expire with their TTL.
type RedisDashboardCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

const defaultCachePrefix = "loyalty:dashboard"

// ConnectRedis parses a redis:// URL and verifies the server answers
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewRedisDashboardCache(client *redis.Client, ttl time.Duration) *RedisDashboardCache {
	return &RedisDashboardCache{client: client, prefix: defaultCachePrefix, ttl: ttl}
}

func (c *RedisDashboardCache) generationKey() string {
	return c.prefix + ":gen"
}

// Generation returns the current cache generation. A missing key is generation 0.
func (c *RedisDashboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisDashboardCache) entryKey(gen int64, rangeKey string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, rangeKey)
}

func (c *RedisDashboardCache) Get(ctx context.Context, gen int64, rangeKey string) (*analytics.Dashboard, bool, error) {
	raw, err := c.client.Get(ctx, c.entryKey(gen, rangeKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached dashboard: %w", err)
	}

	var d analytics.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, fmt.Errorf("decode cached dashboard: %w", err)
	}
	return &d, true, nil
}

// Set stores d under gen. Entries written for an outdated generation are
// unreachable once the generation has moved on.
func (c *RedisDashboardCache) Set(ctx context.Context, gen int64, rangeKey string, d *analytics.Dashboard) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(gen, rangeKey), raw, c.ttl).Err()
}

// Invalidate bumps the generation so existing entries are no longer read
func (c *RedisDashboardCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}
