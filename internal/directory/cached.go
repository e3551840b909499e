package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/transfer-service/internal/domain"
)

const cacheKeyPrefix = "transfer-service:directory:"

type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached is a read-through Redis cache in front of another Directory.
// Redis failures are logged and fall through to the wrapped directory.
type Cached struct {
	next   Directory
	client cacheClient
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewCached wraps next. A nil client returns next unchanged.
func NewCached(next Directory, client *redis.Client, ttl time.Duration, logger *zap.Logger) Directory {
	if client == nil {
		return next
	}
	return newCached(next, client, ttl, logger)
}

func newCached(next Directory, client cacheClient, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return readThrough(ctx, c, "tenants", c.next.ListTenants)
}

func (c *Cached) ListDepartments(ctx context.Context, tenantID string) ([]domain.Department, error) {
	return readThrough(ctx, c, "departments:"+tenantID, func(ctx context.Context) ([]domain.Department, error) {
		return c.next.ListDepartments(ctx, tenantID)
	})
}

func (c *Cached) ListPositions(ctx context.Context, tenantID string) ([]domain.Position, error) {
	return readThrough(ctx, c, "positions:"+tenantID, func(ctx context.Context) ([]domain.Position, error) {
		return c.next.ListPositions(ctx, tenantID)
	})
}

func (c *Cached) ListGrades(ctx context.Context, tenantID string) ([]domain.Grade, error) {
	return readThrough(ctx, c, "grades:"+tenantID, func(ctx context.Context) ([]domain.Grade, error) {
		return c.next.ListGrades(ctx, tenantID)
	})
}

func readThrough[T any](ctx context.Context, c *Cached, suffix string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := cacheKeyPrefix + suffix

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.logger.Warn("discarding undecodable directory cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(fresh); err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}
