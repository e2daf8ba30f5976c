package modules

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogCacheKey = "modules:catalog"

// Cache keeps the rarely-changing catalog listing in redis. A nil
// cache is a no-op passthrough. Concurrent misses share a single
// rebuild.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// FetchCatalog loads the cached catalog or populates it via loader.
func (c *Cache) FetchCatalog(ctx context.Context, loader func(context.Context) ([]Module, error)) ([]Module, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	raw, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	if err == nil {
		var cached []Module
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// fall through on a corrupt entry
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	result, err, _ := c.group.Do(catalogCacheKey, func() (any, error) {
		catalog, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(catalog); err == nil {
			_ = c.client.Set(ctx, catalogCacheKey, payload, c.ttl).Err()
		}
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Module), nil
}

// Invalidate drops the cached catalog after a write.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, catalogCacheKey).Err()
}
