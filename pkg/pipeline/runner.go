package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemconv/pkg/cache"
	"github.com/matzehuels/schemconv/pkg/engine"
	"github.com/matzehuels/schemconv/pkg/formats"
)

// Runner encapsulates conversion with caching.
// Both CLI and API use this to avoid duplicating caching logic.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.TTLConversion and cache.TTLRender when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Convert decodes input and encodes it as opts.To, consulting the cache
// first unless opts.Refresh is set.
func (r *Runner) Convert(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForConvert(); err != nil {
		return nil, err
	}

	res := &Result{InputHash: cache.Hash(input), From: opts.from}
	key := r.Keyer.ConversionKey(res.InputHash, opts.ConversionKeyOpts())
	if out, ok := r.lookup(ctx, key, opts); ok {
		res.Output, res.CacheHit = out, true
		r.Logger.Debug("conversion cache hit", "to", opts.to, "bytes", len(out))
		return res, nil
	}

	e, err := r.load(ctx, input, opts, res)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encodeStart := time.Now()
	out, err := e.Save(opts.to)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Stats.OutputBytes = len(out)
	res.Stats.EncodeTime = time.Since(encodeStart)

	r.Logger.Info("converted schematic",
		"from", res.From,
		"to", opts.to,
		"regions", res.Stats.Regions,
		"blocks", res.Stats.Blocks,
		"bytes", len(out),
		"duration", res.Stats.DecodeTime+res.Stats.EncodeTime)

	_ = r.Cache.Set(ctx, key, out, r.ttl(cache.TTLConversion))
	return res, nil
}

// Render decodes input and produces the rendering named by opts.Output.
func (r *Runner) Render(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	res := &Result{InputHash: cache.Hash(input), From: opts.from}
	key := r.Keyer.RenderKey(res.InputHash, opts.RenderKeyOpts())
	if out, ok := r.lookup(ctx, key, opts); ok {
		res.Output, res.CacheHit = out, true
		return res, nil
	}

	e, err := r.load(ctx, input, opts, res)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var out []byte
	if opts.Output == OutputSummary {
		text, err := e.RenderText()
		if err != nil {
			return nil, err
		}
		out = []byte(text)
	} else if out, err = e.DebugAs(opts.Output); err != nil {
		return nil, err
	}
	res.Output = out
	res.Stats.OutputBytes = len(out)
	res.Stats.EncodeTime = time.Since(start)

	r.Logger.Debug("rendered schematic", "output", opts.Output, "bytes", len(out))
	_ = r.Cache.Set(ctx, key, out, r.ttl(cache.TTLRender))
	return res, nil
}

// Load decodes input into a fresh engine without caching. The CLI viewer
// uses it to get at the model.
func (r *Runner) Load(ctx context.Context, input []byte, opts Options) (*engine.Engine, *Result, error) {
	r.applyLogger(&opts)
	if err := opts.validateCommon(); err != nil {
		return nil, nil, err
	}
	res := &Result{InputHash: cache.Hash(input), From: opts.from}
	e, err := r.load(ctx, input, opts, res)
	if err != nil {
		return nil, nil, err
	}
	return e, res, nil
}

func (r *Runner) lookup(ctx context.Context, key string, opts Options) ([]byte, bool) {
	if opts.Refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
		return nil, false
	}
	return data, hit
}

func (r *Runner) load(ctx context.Context, input []byte, opts Options, res *Result) (*engine.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := engine.New(opts.EngineOptions()...)
	start := time.Now()
	if opts.from == formats.Unknown {
		f, err := e.LoadAuto(input)
		if err != nil {
			return nil, err
		}
		res.From = f
	} else if err := e.Load(opts.from, input); err != nil {
		return nil, err
	}
	res.Stats.DecodeTime = time.Since(start)
	res.Stats.InputBytes = len(input)

	st, err := e.Stats()
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	res.Stats.Regions = st.Regions
	res.Stats.Blocks = st.Blocks
	r.Logger.Debug("loaded schematic",
		"format", res.From,
		"bytes", len(input),
		"duration", res.Stats.DecodeTime)
	return e, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger gives the run the runner's logger unless one was set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
