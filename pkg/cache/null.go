package cache

import (
	"context"
	"time"
)

// NullCache backs `--no-cache` runs and the "none" backend. Conversions
// run in full every time and nothing is written to disk or a server.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache {
	return NullCache{}
}

// Get reports a miss for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NullCache) Delete(context.Context, string) error { return nil }

// Clear lets `schemconv cache clear` succeed when caching is off.
func (NullCache) Clear(context.Context) (int, error) { return 0, nil }

func (NullCache) Close() error { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
