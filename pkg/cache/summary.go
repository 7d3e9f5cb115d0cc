// Package cache holds the Redis-backed read cache for the daily summary.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/sweetshop/pkg/config"
	"github.com/example/sweetshop/pkg/models"
	"github.com/go-redis/redis/v8"
)

const summaryTTL = 30 * time.Second

// SummaryCache caches the computed daily summary under a per-day key with a
// short TTL. Mutations invalidate the key so the next read recomputes.
type SummaryCache struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewSummaryCache(cfg *config.RedisConfig) *SummaryCache {
	return &SummaryCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (c *SummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SummaryCache) Get(ctx context.Context, day string) (models.DailySummary, error) {
	data, err := c.client.Get(ctx, summaryKey(day)).Result()
	if err != nil {
		return models.DailySummary{}, err
	}

	var summary models.DailySummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return models.DailySummary{}, err
	}
	return summary, nil
}

func (c *SummaryCache) Set(ctx context.Context, day string, summary models.DailySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(day), data, summaryTTL).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context, day string) error {
	return c.client.Del(ctx, summaryKey(day)).Err()
}

func (c *SummaryCache) Close() error {
	return c.client.Close()
}

func summaryKey(day string) string {
	return fmt.Sprintf("summary:%s", day)
}
