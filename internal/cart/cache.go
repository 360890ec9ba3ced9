package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds rendered cart views so repeated reads skip the database.
// Implementations must tolerate being skipped entirely; the cart service
// degrades to the repository on any cache error.
type Cache interface {
	Get(ctx context.Context, userID string) (*View, error)
	Set(ctx context.Context, userID string, v *View) error
	Delete(ctx context.Context, userID string) error
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*View, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal cart view: %w", err)
	}
	return &v, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, v *View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cart view: %w", err)
	}

	// Jitter the TTL so a burst of carts does not expire at once
	ttl := r.baseTTL + time.Duration(rand.Intn(300))*time.Second
	if err := r.client.Set(ctx, cacheKey(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return "cart:" + userID
}
