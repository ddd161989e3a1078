package cache

import (
	"context"
	"time"

	"github.com/matzehuels/schemconv/pkg/observability"
)

// Observed reports hits, misses and writes of the wrapped cache to the
// registered observability.CacheHooks, labelled by KeyType.
type Observed struct {
	inner Cache
}

// NewObserved wraps inner.
func NewObserved(inner Cache) *Observed {
	return &Observed{inner: inner}
}

// Get implements Cache.
func (c *Observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

// Set implements Cache.
func (c *Observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// Delete implements Cache.
func (c *Observed) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Unwrap returns the wrapped cache.
func (c *Observed) Unwrap() Cache { return c.inner }

// Close implements Cache.
func (c *Observed) Close() error {
	return c.inner.Close()
}

// Ensure Observed implements Cache.
var _ Cache = (*Observed)(nil)
