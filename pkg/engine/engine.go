// Package engine holds one loaded schematic model and converts it between
// formats.
//
// An Engine starts Empty. A successful Load* replaces the model and moves
// it to Loaded; a failed load leaves the previous state untouched. Save,
// RenderText and Debug need a model and return ErrNotLoaded otherwise.
//
//	e := engine.New(engine.WithLogger(logger))
//	if err := e.LoadLitematic(data); err != nil {
//	    return err
//	}
//	schem, err := e.ToSchematic()
//
// Engines are independent handles: create as many as needed. One engine
// guards its model with a read-write lock, so concurrent renders and saves
// are safe; concurrent loads should be serialized by the caller since the
// last one wins.
package engine

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/formats/litematic"
	"github.com/matzehuels/schemconv/pkg/formats/schem"
	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/observability"
	"github.com/matzehuels/schemconv/pkg/render"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

// State is the engine lifecycle state.
type State int

const (
	Empty State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "empty"
}

// Engine converts one schematic model between formats.
type Engine struct {
	id     uuid.UUID
	logger *log.Logger
	limit  int64
	author string
	codecs map[formats.Format]formats.Codec

	mu     sync.RWMutex
	model  *schematic.Schematic
	source formats.Format
}

// New returns an Empty engine.
func New(opts ...Option) *Engine {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	o.litematic.MaxBlocks = formats.MaxBlocks(o.maxDecompressed)
	o.schem.MaxBlocks = o.litematic.MaxBlocks
	id := o.id
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Engine{
		id:     id,
		logger: o.logger.With("engine", id.String()[:8]),
		limit:  o.maxDecompressed,
		author: o.author,
		codecs: map[formats.Format]formats.Codec{
			formats.Litematic: litematic.New(o.litematic),
			formats.Schematic: schem.New(o.schem),
		},
	}
}

// ID identifies the engine in logs and sessions.
func (e *Engine) ID() uuid.UUID { return e.id }

// State reports whether a model is loaded.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return Empty
	}
	return Loaded
}

// Source returns the format the current model was loaded from, or
// formats.Unknown when Empty.
func (e *Engine) Source() formats.Format {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.source
}

// Model returns a deep copy of the current model.
func (e *Engine) Model() (*schematic.Schematic, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Stats summarizes the loaded model.
type Stats struct {
	Regions int
	Blocks  int
	Volume  int
}

// Stats returns region, non-air block and volume totals for the model.
func (e *Engine) Stats() (Stats, error) {
	s, err := e.current()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Regions: len(s.Regions), Blocks: s.CountBlocks(), Volume: s.TotalVolume()}, nil
}

// Set replaces the current model with a copy of s.
func (e *Engine) Set(s *schematic.Schematic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = s.Clone()
	e.source = formats.Unknown
}

// Reset drops the model and returns the engine to Empty.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = nil
	e.source = formats.Unknown
}

func (e *Engine) current() (*schematic.Schematic, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return nil, ErrNotLoaded
	}
	return e.model, nil
}

// =============================================================================
// Loading
// =============================================================================

// LoadLitematic replaces the model with the decoded litematic data.
func (e *Engine) LoadLitematic(data []byte) error {
	return e.Load(formats.Litematic, data)
}

// LoadSchematic replaces the model with the decoded Sponge schematic data.
func (e *Engine) LoadSchematic(data []byte) error {
	return e.Load(formats.Schematic, data)
}

// Load decodes data as format f. On failure the engine keeps its previous
// model and the error is a *DecodeError or *InternalError.
func (e *Engine) Load(f formats.Format, data []byte) error {
	c, ok := e.codecs[f]
	if !ok {
		return &DecodeError{Format: f, Reason: "unsupported format", Err: formats.ErrUnrecognized}
	}
	return e.load(f, len(data), func() (*schematic.Schematic, error) {
		return formats.Decode(c, data, e.limit)
	})
}

// LoadAuto detects the format from the content and loads it.
func (e *Engine) LoadAuto(data []byte) (formats.Format, error) {
	_, root, err := formats.ReadNBT(data, e.limit)
	if err != nil {
		return formats.Unknown, newDecodeError(formats.Unknown, err)
	}
	f := formats.Detect(root)
	c, ok := e.codecs[f]
	if !ok {
		return formats.Unknown, &DecodeError{Format: f, Reason: "unrecognized format", Err: formats.ErrUnrecognized}
	}
	err = e.load(f, len(data), func() (*schematic.Schematic, error) {
		return c.FromNBT(root)
	})
	return f, err
}

func (e *Engine) load(f formats.Format, size int, decode func() (*schematic.Schematic, error)) (err error) {
	hooks := observability.Engine()
	hooks.OnLoadStart(f.String(), size)
	start := time.Now()
	defer func() {
		hooks.OnLoadComplete(f.String(), size, time.Since(start), err)
	}()

	s, err := guard("load "+f.String(), decode)
	if err != nil {
		if _, internal := err.(*InternalError); !internal {
			err = newDecodeError(f, err)
		}
		e.logger.Debug("load failed", "format", f, "bytes", size, "err", err)
		return err
	}

	if s.Metadata.Author == "" {
		s.Metadata.Author = e.author
	}

	e.mu.Lock()
	e.model = s
	e.source = f
	e.mu.Unlock()

	e.logger.Debug("loaded schematic",
		"format", f,
		"bytes", size,
		"regions", len(s.Regions),
		"blocks", s.CountBlocks(),
		"duration", time.Since(start))
	return nil
}

// =============================================================================
// Saving
// =============================================================================

// ToSchematic encodes the model as a Sponge schematic.
func (e *Engine) ToSchematic() ([]byte, error) {
	return e.Save(formats.Schematic)
}

// ToLitematic encodes the model as a litematic.
func (e *Engine) ToLitematic() ([]byte, error) {
	return e.Save(formats.Litematic)
}

// Save encodes the model as format f. Output is deterministic for a given
// model.
func (e *Engine) Save(f formats.Format) (out []byte, err error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	c, ok := e.codecs[f]
	if !ok {
		return nil, &EncodeError{Format: f, Err: formats.ErrUnrecognized}
	}

	hooks := observability.Engine()
	hooks.OnSaveStart(f.String())
	start := time.Now()
	defer func() {
		hooks.OnSaveComplete(f.String(), len(out), time.Since(start), err)
	}()

	out, err = guard("save "+f.String(), func() ([]byte, error) {
		return formats.Encode(c, s)
	})
	if err != nil {
		if _, internal := err.(*InternalError); !internal {
			err = &EncodeError{Format: f, Err: err}
		}
		e.logger.Debug("save failed", "format", f, "err", err)
		return nil, err
	}
	e.logger.Debug("saved schematic", "format", f, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}

// NBT returns the tree the model would be written as, before compression.
func (e *Engine) NBT(f formats.Format) (string, nbt.Compound, error) {
	s, err := e.current()
	if err != nil {
		return "", nil, err
	}
	c, ok := e.codecs[f]
	if !ok {
		return "", nil, &EncodeError{Format: f, Err: formats.ErrUnrecognized}
	}
	name, root, err := c.ToNBT(s)
	if err != nil {
		return "", nil, &EncodeError{Format: f, Err: err}
	}
	return name, root, nil
}

// =============================================================================
// Rendering
// =============================================================================

// RenderText returns the human-readable summary of the model.
func (e *Engine) RenderText() (string, error) {
	s, err := e.current()
	if err != nil {
		return "", err
	}
	return render.Text(s), nil
}

// Debug returns the full structural dump of the model.
func (e *Engine) Debug() (string, error) {
	s, err := e.current()
	if err != nil {
		return "", err
	}
	return render.Debug(s), nil
}

// DebugAs renders the structural dump as text, JSON or YAML.
func (e *Engine) DebugAs(output string) ([]byte, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return render.Encode(s, output)
}

// guard runs fn, turning a panic into an *InternalError.
func guard[T any](op string, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &InternalError{Op: op, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
