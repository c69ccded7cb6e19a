package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/albaseet/catalog/internal/catalog"
)

const (
	cacheVersionKey = "catalog:products:version"
	cacheListPrefix = "catalog:products:list"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store/cache: ping: %w", err)
	}
	return client, nil
}

// Cached is a read-through Redis cache for List in front of another
// Repository. Every write bumps a version counter, which retires all
// cached lists at once. When Redis is unavailable Cached serves straight
// from the wrapped repository.
type Cached struct {
	next   Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCached wraps next. A nil client disables caching.
func NewCached(next Repository, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, client: client, ttl: ttl}
}

// List returns the cached product list, loading it from the wrapped
// repository on a miss. Concurrent misses share one load.
func (c *Cached) List(ctx context.Context) ([]catalog.Product, error) {
	if c.client == nil {
		return c.next.List(ctx)
	}

	key, err := c.listKey(ctx)
	if err != nil {
		slog.Warn("product cache unavailable", "error", err)
		return c.next.List(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []catalog.Product
		if err := json.Unmarshal(payload, &products); err == nil {
			return products, nil
		}
		slog.Warn("discarding corrupt product cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("product cache read failed", "key", key, "error", err)
		return c.next.List(ctx)
	}

	// The load is shared by every waiter, so it must outlive the caller
	// that happened to start it.
	v, err, _ := c.group.Do(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		products, err := c.next.List(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(products)
		if err != nil {
			return nil, fmt.Errorf("encode product list: %w", err)
		}
		if err := c.client.Set(loadCtx, key, raw, c.ttl).Err(); err != nil {
			slog.Warn("product cache write failed", "key", key, "error", err)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]catalog.Product)
	out := make([]catalog.Product, len(shared))
	for i, p := range shared {
		out[i] = clone(p)
	}
	return out, nil
}

func (c *Cached) Get(ctx context.Context, id string) (catalog.Product, error) {
	return c.next.Get(ctx, id)
}

func (c *Cached) Create(ctx context.Context, d catalog.Draft) (catalog.Product, error) {
	p, err := c.next.Create(ctx, d)
	if err != nil {
		return p, err
	}
	c.invalidate(ctx)
	return p, nil
}

func (c *Cached) BulkCreate(ctx context.Context, drafts []catalog.Draft) ([]catalog.Product, error) {
	products, err := c.next.BulkCreate(ctx, drafts)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return products, nil
}

func (c *Cached) Update(ctx context.Context, id string, p catalog.Patch) (catalog.Product, error) {
	updated, err := c.next.Update(ctx, id, p)
	if err != nil {
		return updated, err
	}
	c.invalidate(ctx)
	return updated, nil
}

func (c *Cached) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Version returns the current cache generation, initialising it when missing.
func (c *Cached) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

func (c *Cached) listKey(ctx context.Context) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", cacheListPrefix, ver), nil
}

// invalidate bumps the version. A failure is logged: the write already
// succeeded and stale entries expire with the TTL.
func (c *Cached) invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, cacheVersionKey).Err(); err != nil {
		slog.Warn("product cache invalidation failed", "error", err)
	}
}
