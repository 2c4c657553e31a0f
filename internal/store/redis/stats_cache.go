package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/auditor/internal/analytics"
)

// StatsCache keeps computed session statistics as JSON with a TTL.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(sessionID uuid.UUID) string {
	return "stats:session:" + sessionID.String()
}

// Get returns nil, nil on a cache miss.
func (c *StatsCache) Get(ctx context.Context, sessionID uuid.UUID) (*analytics.SessionStats, error) {
	raw, err := c.client.Get(ctx, statsKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis.StatsCache.Get: %w", err)
	}

	var stats analytics.SessionStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is a miss; drop it so the next write replaces it.
		_ = c.client.Del(ctx, statsKey(sessionID)).Err()
		return nil, nil
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, sessionID uuid.UUID, stats analytics.SessionStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("redis.StatsCache.Set: marshal: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(sessionID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis.StatsCache.Set: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	if err := c.client.Del(ctx, statsKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis.StatsCache.Invalidate: %w", err)
	}
	return nil
}
