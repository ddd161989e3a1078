// Package cache provides pluggable byte caches for conversion results.
//
// Backends:
//   - [FileCache] stores entries as files, for the CLI
//   - [RedisCache] and [MongoCache] share results between server replicas
//   - [NullCache] disables caching
//
// [Compressed] wraps any backend with zstd compression.
//
// Keys are built by a [Keyer] from a hash of the input bytes plus the
// options that affect the output, so identical requests hit the same entry.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per entry kind.
const (
	TTLConversion = 7 * 24 * time.Hour
	TTLRender     = 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// ConversionKey identifies converted output bytes.
	ConversionKey(inputHash string, opts ConversionKeyOpts) string

	// RenderKey identifies a text, debug, JSON or YAML rendering.
	RenderKey(inputHash string, opts RenderKeyOpts) string
}

// ConversionKeyOpts holds the options that change converted bytes.
type ConversionKeyOpts struct {
	From             string `json:"from"`
	To               string `json:"to"`
	DataVersion      int32  `json:"data_version,omitempty"`
	LitematicVersion int32  `json:"litematic_version,omitempty"`
	Author           string `json:"author,omitempty"`
}

// RenderKeyOpts holds the options that change a rendering.
type RenderKeyOpts struct {
	From   string `json:"from"`
	Output string `json:"output"`
	Author string `json:"author,omitempty"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ConversionKey implements Keyer.
func (DefaultKeyer) ConversionKey(inputHash string, opts ConversionKeyOpts) string {
	return hashKey("convert", inputHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(inputHash string, opts RenderKeyOpts) string {
	return hashKey("render", inputHash, opts)
}

// KeyType returns the kind prefix of a key built by DefaultKeyer, for
// metrics labels.
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "unknown"
	}
	kind := key[:i]
	return kind[strings.LastIndexByte(kind, ':')+1:]
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
