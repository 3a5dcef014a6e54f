// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache keeps the latest table snapshot and operator presence markers in
// Redis so a restarted process can offer fast resume and clients can see who
// is live. It is strictly optional: a nil client degrades every call to a
// no-op so the rest of the service never branches on availability.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps a redis client. Pass nil to disable caching.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func snapshotKey(id uuid.UUID) string { return "settlers:snapshot:" + id.String() }
func presenceKey(id uuid.UUID) string { return "settlers:presence:" + id.String() }

// SetSnapshot stores the latest snapshot bytes for a table.
func (c *Cache) SetSnapshot(ctx context.Context, id uuid.UUID, data []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, snapshotKey(id), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot %s: %w", id, err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot, or (nil, nil) on miss or when
// caching is disabled.
func (c *Cache) GetSnapshot(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", id, err)
	}
	return data, nil
}

// MarkPresent refreshes the operator presence marker for a table.
func (c *Cache) MarkPresent(ctx context.Context, id uuid.UUID, operator string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, presenceKey(id), operator, 2*time.Minute).Err()
}

// Present returns the operator currently marked live on a table, empty when
// nobody is.
func (c *Cache) Present(ctx context.Context, id uuid.UUID) (string, error) {
	if c == nil || c.rdb == nil {
		return "", nil
	}
	op, err := c.rdb.Get(ctx, presenceKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return op, err
}
