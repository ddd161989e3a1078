// Package pipeline runs cached schematic conversions and renderings.
//
// The CLI and the HTTP service share this package so both entry points
// decode, convert, cache and log the same way.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Convert(ctx, data, pipeline.Options{
//	    From: "auto",
//	    To:   "schem",
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.schem", res.Output, 0644)
//
// A Runner keeps no per-run state: every call builds a fresh engine, so
// one Runner can serve concurrent requests.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemconv/pkg/cache"
	"github.com/matzehuels/schemconv/pkg/engine"
	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

// FromAuto asks the runner to detect the input format.
const FromAuto = "auto"

// Render outputs accepted by Runner.Render. OutputSummary is render_text;
// the others are the debug dump in text, JSON or YAML.
const (
	OutputSummary = "summary"
	OutputText    = render.OutputText
	OutputJSON    = render.OutputJSON
	OutputYAML    = render.OutputYAML
)

// ValidOutputs is the set of supported render outputs.
var ValidOutputs = map[string]bool{
	OutputSummary: true,
	OutputText:    true,
	OutputJSON:    true,
	OutputYAML:    true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one conversion or rendering.
// This struct supports JSON serialization for API requests.
type Options struct {
	// From is the input format name, or "auto" (default) to detect it.
	From string `json:"from,omitempty"`
	// To is the output format for Convert.
	To string `json:"to,omitempty"`
	// Output selects the rendering for Render. Default summary.
	Output string `json:"output,omitempty"`

	// Written when the model carries no version of its own.
	DataVersion      int32 `json:"data_version,omitempty"`
	LitematicVersion int32 `json:"litematic_version,omitempty"`
	// Author fills in a missing author.
	Author string `json:"author,omitempty"`

	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Workers         int         `json:"-"`
	MaxDecompressed int64       `json:"-"`
	Logger          *log.Logger `json:"-"`

	from, to formats.Format
}

// Result is the outcome of one run.
type Result struct {
	// Output holds the converted bytes or the rendering.
	Output []byte

	// From is the input format, detected when Options.From was auto.
	// It is formats.Unknown on cache hits of auto-detected input.
	From formats.Format

	// InputHash is the SHA-256 of the input, the basis of cache keys.
	InputHash string

	// Stats is only filled on cache misses.
	Stats Stats

	// CacheHit is true when Output came from the cache.
	CacheHit bool
}

// Stats contains execution statistics.
type Stats struct {
	InputBytes  int
	OutputBytes int
	Regions     int
	Blocks      int
	DecodeTime  time.Duration
	EncodeTime  time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// ParseFrom resolves an input format name; "" and "auto" mean detect.
func ParseFrom(name string) (formats.Format, error) {
	if name == "" || name == FromAuto {
		return formats.Unknown, nil
	}
	f, err := formats.Parse(name)
	if err != nil {
		return formats.Unknown, errs.Wrap(errs.ErrCodeInvalidFormat, err, "input format")
	}
	return f, nil
}

// ValidateOutput checks that a render output is supported.
func ValidateOutput(output string) error {
	if !ValidOutputs[output] {
		return errs.New(errs.ErrCodeInvalidInput,
			"invalid output: %q (must be one of: summary, text, json, yaml)", output)
	}
	return nil
}

// ValidateForConvert checks the fields Convert needs and applies defaults.
func (o *Options) ValidateForConvert() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if o.To == "" {
		return errs.New(errs.ErrCodeInvalidFormat, "output format is required")
	}
	to, err := formats.Parse(o.To)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "output format")
	}
	o.to = to
	return nil
}

// ValidateForRender checks the fields Render needs and applies defaults.
func (o *Options) ValidateForRender() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if o.Output == "" {
		o.Output = OutputSummary
	}
	return ValidateOutput(o.Output)
}

func (o *Options) validateCommon() error {
	from, err := ParseFrom(o.From)
	if err != nil {
		return err
	}
	o.from = from
	if o.From == "" {
		o.From = FromAuto
	}
	if o.DataVersion < 0 || o.LitematicVersion < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "versions must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// EngineOptions returns the engine configuration for this run.
func (o *Options) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(o.Logger),
		engine.WithWorkers(o.Workers),
		engine.WithMaxDecompressed(o.MaxDecompressed),
		engine.WithDataVersion(o.DataVersion),
		engine.WithLitematicVersion(o.LitematicVersion),
		engine.WithAuthor(o.Author),
	}
}

// ConversionKeyOpts returns cache key options for a conversion.
func (o *Options) ConversionKeyOpts() cache.ConversionKeyOpts {
	return cache.ConversionKeyOpts{
		From:             o.From,
		To:               o.to.String(),
		DataVersion:      o.DataVersion,
		LitematicVersion: o.LitematicVersion,
		Author:           o.Author,
	}
}

// RenderKeyOpts returns cache key options for a rendering.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{From: o.From, Output: o.Output, Author: o.Author}
}

func (o *Options) String() string {
	return fmt.Sprintf("from=%s to=%s output=%s", o.From, o.To, o.Output)
}
