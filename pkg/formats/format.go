// Package formats identifies schematic file formats and provides the gzip
// and NBT container shared by every format codec.
//
// Each concrete format lives in a subpackage ([litematic], [schem]) and
// implements [Codec], translating between an NBT tree and the
// [schematic.Schematic] model. [Decode] and [Encode] wrap a codec with the
// container so callers deal in bytes.
//
// The format of unknown input is chosen by content, never by file name:
//
//	f, err := formats.Sniff(data, formats.DefaultMaxDecompressedSize)
//
// [litematic]: https://pkg.go.dev/github.com/matzehuels/schemconv/pkg/formats/litematic
// [schem]: https://pkg.go.dev/github.com/matzehuels/schemconv/pkg/formats/schem
package formats

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/schemconv/pkg/nbt"
)

// Format identifies a supported file format.
type Format int

const (
	// Unknown is the zero Format.
	Unknown Format = iota
	// Litematic is the Litematica mod's multi-region format.
	Litematic
	// Schematic is the Sponge schematic format (version 2).
	Schematic
)

// All returns the supported formats in a stable order.
func All() []Format { return []Format{Litematic, Schematic} }

func (f Format) String() string {
	switch f {
	case Litematic:
		return "litematic"
	case Schematic:
		return "schem"
	}
	return "unknown"
}

// Extension returns the conventional file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case Litematic:
		return ".litematic"
	case Schematic:
		return ".schem"
	}
	return ""
}

// Parse maps a user-supplied name to a Format.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "litematic", "lm":
		return Litematic, nil
	case "schem", "schematic", "sponge":
		return Schematic, nil
	}
	return Unknown, fmt.Errorf("unknown format %q (want litematic or schem)", s)
}

// FromPath guesses a format from a file extension. It is only a hint for
// output paths; input is always identified with [Sniff].
func FromPath(path string) (Format, bool) {
	f, err := Parse(filepath.Ext(path))
	return f, err == nil
}

// Detect identifies the format of a decoded root compound.
func Detect(root nbt.Compound) Format {
	switch {
	case root.Has("Regions") && root.Has("MinecraftDataVersion"):
		return Litematic
	case root.Has("BlockData") && root.Has("Width"),
		root.Has("Palette") && root.Has("Width"):
		return Schematic
	}
	return Unknown
}

// Sniff decompresses data and identifies its format.
func Sniff(data []byte, limit int64) (Format, error) {
	_, root, err := ReadNBT(data, limit)
	if err != nil {
		return Unknown, err
	}
	if f := Detect(root); f != Unknown {
		return f, nil
	}
	return Unknown, fmt.Errorf("%w: root has neither Regions nor BlockData", ErrUnrecognized)
}
