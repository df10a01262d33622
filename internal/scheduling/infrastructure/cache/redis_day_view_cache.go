// Package cache stores serialized day views keyed by organization and date.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// DefaultTTL bounds staleness when an invalidation is missed.
const DefaultTTL = 30 * time.Second

// Key returns the cache key for an organization's day:
// schedule:{org_id}:day:{YYYY-MM-DD}
func Key(organizationID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("schedule:%s:day:%s", organizationID, date.UTC().Format(domain.DateLayout))
}

// RedisDayViewCache implements domain.DayViewCache with Redis.
type RedisDayViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDayViewCache creates a Redis-backed cache. A non-positive ttl uses DefaultTTL.
func NewRedisDayViewCache(client *redis.Client, ttl time.Duration) *RedisDayViewCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDayViewCache{client: client, ttl: ttl}
}

func (c *RedisDayViewCache) Get(ctx context.Context, organizationID uuid.UUID, date time.Time) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, Key(organizationID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get day view")
	}
	return val, true, nil
}

func (c *RedisDayViewCache) Set(ctx context.Context, organizationID uuid.UUID, date time.Time, payload []byte) error {
	if err := c.client.Set(ctx, Key(organizationID, date), payload, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "set day view")
	}
	return nil
}

func (c *RedisDayViewCache) Invalidate(ctx context.Context, organizationID uuid.UUID, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, Key(organizationID, d))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "invalidate day view")
	}
	return nil
}

// Ping reports whether Redis is reachable. Used by the health registry.
func (c *RedisDayViewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
