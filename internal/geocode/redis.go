package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/places-api/internal/config"
	"github.com/phrazzld/places-api/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "places:geocode:"

// RedisCache is a Cache stored in Redis as JSON values.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to the Redis server in cfg and verifies it with a ping.
func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{client: client, timeout: 250 * time.Millisecond}, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (domain.Location, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Location{}, false, nil
	}
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("redis get: %w", err)
	}

	var loc domain.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return domain.Location{}, false, fmt.Errorf("decode cached location: %w", err)
	}
	return loc, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, loc domain.Location, ttl time.Duration) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
