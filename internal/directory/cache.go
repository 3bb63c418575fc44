package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix  = "dev-sourcer:"
	defaultCacheTTL = time.Hour
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cached keeps profile, repository and language lookups of another Source in redis.
// Searches always reach the underlying source so rankings stay fresh.
// Redis failures are logged and bypassed.
type Cached struct {
	Source
	rdb    redisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewCached(src Source, rdb redisClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cached{Source: src, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cached) Profile(ctx context.Context, handle string) (*Profile, error) {
	return cached(ctx, c, "profile:"+handle, func() (*Profile, error) {
		return c.Source.Profile(ctx, handle)
	})
}

func (c *Cached) Repositories(ctx context.Context, handle string, perPage int) ([]Repository, error) {
	return cached(ctx, c, "repos:"+handle+":"+strconv.Itoa(perPage), func() ([]Repository, error) {
		return c.Source.Repositories(ctx, handle, perPage)
	})
}

func (c *Cached) Languages(ctx context.Context, handle, repo string) (map[string]int, error) {
	return cached(ctx, c, "languages:"+handle+"/"+repo, func() (map[string]int, error) {
		return c.Source.Languages(ctx, handle, repo)
	})
}

func cached[T any](ctx context.Context, c *Cached, key string, fetch func() (T, error)) (T, error) {
	key = cacheKeyPrefix + key

	var value T
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &value); err == nil {
			c.logger.Debug("directory cache hit", zap.String("key", key))
			return value, nil
		}
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err = fetch()
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}

	return value, nil
}
