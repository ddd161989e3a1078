package cache

import (
	"context"
	"fmt"
)

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Clear removes every entry from c, looking through wrappers. It fails for
// backends that cannot enumerate their entries.
func Clear(ctx context.Context, c Cache) (int, error) {
	for {
		switch v := c.(type) {
		case Clearer:
			return v.Clear(ctx)
		case interface{ Unwrap() Cache }:
			c = v.Unwrap()
		default:
			return 0, fmt.Errorf("cache %T cannot be cleared", c)
		}
	}
}
