package config

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemconv/pkg/cache"
	"github.com/matzehuels/schemconv/pkg/pipeline"
)

// OpenCache builds the configured cache backend. Network backends are
// pinged before returning. The result reports through observability hooks
// and is zstd-compressed when cache.compress is set.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendFile:
		dir, derr := c.CacheDir()
		if derr != nil {
			return nil, fmt.Errorf("cache dir: %w", derr)
		}
		backend, err = cache.NewFileCache(dir)
	case BackendRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   appName + ":",
		})
	case BackendMongo:
		backend, err = cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", c.Cache.Backend, err)
	}

	if c.Cache.Compress {
		if backend, err = cache.NewCompressed(backend); err != nil {
			return nil, err
		}
	}
	return cache.NewObserved(backend), nil
}

// NewRunner opens the cache and returns a runner using it. With noCache
// the cache is skipped entirely.
func (c *Config) NewRunner(ctx context.Context, noCache bool, logger *log.Logger) (*pipeline.Runner, error) {
	var store cache.Cache = cache.NewNullCache()
	if !noCache {
		var err error
		if store, err = c.OpenCache(ctx); err != nil {
			return nil, err
		}
	}
	r := pipeline.NewRunner(store, nil, logger)
	r.TTL = c.Cache.TTL.Duration
	return r, nil
}

// PipelineOptions returns run options carrying the configured defaults.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		DataVersion:      c.Defaults.DataVersion,
		LitematicVersion: c.Defaults.LitematicVersion,
		Author:           c.Defaults.Author,
		Workers:          c.Engine.Workers,
		MaxDecompressed:  c.Engine.MaxDecompressed,
	}
}
