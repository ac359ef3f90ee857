package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WhisperLily/task-management-api/internal/domain"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

const keyPrefix = "stats:"

// StatsCache implements repository.StatsCache using Redis. Entries expire
// after the configured TTL; writes to a user's tasks invalidate eagerly.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new Redis-backed task stats cache.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves cached stats for the given user.
func (c *StatsCache) Get(ctx context.Context, userID string) (*domain.TaskStats, error) {
	key := keyPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get stats: %w", err)
	}

	var stats domain.TaskStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return &stats, nil
}

// Set stores stats for the given user with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, userID string, stats *domain.TaskStats) error {
	key := keyPrefix + userID

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}

	return nil
}

// Invalidate drops the cached stats for the given user.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	key := keyPrefix + userID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}

	return nil
}
