// Package cache provides a Redis-backed prayer times cache shared between
// machines or processes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

const keyPrefix = "anchor:prayer-times:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache implements ports.PrayerTimesCache on Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Ensure RedisCache implements ports.PrayerTimesCache.
var _ ports.PrayerTimesCache = (*RedisCache)(nil)

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, opts Options) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address not configured")
	}
	if opts.TTL <= 0 {
		opts.TTL = 48 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: client, ttl: opts.TTL}, nil
}

// Get returns the cached times for key.
func (c *RedisCache) Get(ctx context.Context, key ports.PrayerTimesKey) (*domain.PrayerTimes, error) {
	data, err := c.client.Get(ctx, keyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from redis: %w", key, err)
	}

	var times domain.PrayerTimes
	if err := json.Unmarshal(data, &times); err != nil {
		return nil, fmt.Errorf("failed to decode cached prayer times: %w", err)
	}
	return &times, nil
}

// Put stores times for key with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, key ports.PrayerTimesKey, times *domain.PrayerTimes) error {
	data, err := json.Marshal(times)
	if err != nil {
		return fmt.Errorf("failed to encode prayer times: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to add %s to redis: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
