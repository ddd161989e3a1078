package engine

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/schemconv/pkg/formats/litematic"
	"github.com/matzehuels/schemconv/pkg/formats/schem"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	id              uuid.UUID
	logger          *log.Logger
	maxDecompressed int64
	author          string
	litematic       litematic.Options
	schem           schem.Options
}

// WithLogger sets the logger. Load and save events log at debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithID fixes the engine ID instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}

// WithMaxDecompressed bounds how large an input may inflate to. It also
// caps decoded volume at formats.MaxBlocks(n), so a small compressed file
// cannot declare a region larger than the limit would hold.
// Zero selects formats.DefaultMaxDecompressedSize.
func WithMaxDecompressed(n int64) Option {
	return func(o *options) { o.maxDecompressed = n }
}

// WithWorkers bounds parallel region processing in the litematic codec.
func WithWorkers(n int) Option {
	return func(o *options) { o.litematic.Workers = n }
}

// WithDataVersion sets the data version written when the model has none.
func WithDataVersion(v int32) Option {
	return func(o *options) {
		o.litematic.DataVersion = v
		o.schem.DataVersion = v
	}
}

// WithAuthor fills Metadata.Author on load when the input names none.
func WithAuthor(name string) Option {
	return func(o *options) { o.author = name }
}

// WithLitematicVersion sets the litematic version written when the model
// has none.
func WithLitematicVersion(v int32) Option {
	return func(o *options) { o.litematic.Version = v }
}
