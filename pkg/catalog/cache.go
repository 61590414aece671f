package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/collegematch/collegematch-engine/pkg/models"
)

// Cache stores normalized catalog pages keyed by query.
type Cache interface {
	Get(ctx context.Context, key string) (*CachedPage, error) // nil, nil on miss
	Set(ctx context.Context, key string, page *CachedPage, ttl time.Duration) error
}

// CachedPage is what the cache holds for one query.
type CachedPage struct {
	Candidates []models.Candidate `json:"candidates"`
	Total      int                `json:"total"`
	Dropped    int                `json:"dropped"`
}

// RedisCache is a Cache backed by Redis string values holding JSON.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache returns a cache over client. A nil client yields a nil Cache,
// which the Scorecard client treats as caching disabled.
func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

var _ Cache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context, key string) (*CachedPage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var page CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode cached page: %w", err)
	}
	return &page, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, page *CachedPage, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode cached page: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
