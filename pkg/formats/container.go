package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

// DefaultMaxDecompressedSize bounds how much a single file may inflate to.
const DefaultMaxDecompressedSize int64 = 512 << 20

// MaxBlocks returns the block budget for a decompressed-size limit. A
// decoded block takes four bytes, so a model may hold no more blocks than
// limit/4 regardless of how well the input compressed. A limit of zero or
// less means DefaultMaxDecompressedSize.
func MaxBlocks(limit int64) int {
	if limit <= 0 {
		limit = DefaultMaxDecompressedSize
	}
	return int(min(limit/4, schematic.MaxVolume))
}

// CheckBlocks fails with ErrTooLarge when n blocks exceed max.
func CheckBlocks(n, max int) error {
	if n > max {
		return fmt.Errorf("%w: %d blocks, limit %d", ErrTooLarge, n, max)
	}
	return nil
}

// Sentinel causes wrapped by codec errors. Callers classify failures with
// errors.Is.
var (
	ErrNotCompressed      = errors.New("not a gzip stream")
	ErrTooLarge           = errors.New("decompressed data exceeds limit")
	ErrUnrecognized       = errors.New("unrecognized format")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrMalformed          = errors.New("malformed structure")
	ErrUnrepresentable    = errors.New("not representable in format")
)

// Codec translates between an NBT tree and the model for one format.
type Codec interface {
	Format() Format
	FromNBT(root nbt.Compound) (*schematic.Schematic, error)
	ToNBT(s *schematic.Schematic) (name string, root nbt.Compound, err error)
}

// Decode reads data with the container and hands the root to c.
func Decode(c Codec, data []byte, limit int64) (*schematic.Schematic, error) {
	_, root, err := ReadNBT(data, limit)
	if err != nil {
		return nil, err
	}
	return c.FromNBT(root)
}

// Encode converts s with c and wraps the tree in the container.
func Encode(c Codec, s *schematic.Schematic) ([]byte, error) {
	name, root, err := c.ToNBT(s)
	if err != nil {
		return nil, err
	}
	return WriteNBT(name, root)
}

// ReadNBT inflates data (gzip, or raw NBT starting with a compound tag)
// and decodes the root compound.
func ReadNBT(data []byte, limit int64) (string, nbt.Compound, error) {
	raw, err := Decompress(data, limit)
	if err != nil {
		return "", nil, err
	}
	return nbt.Decode(raw)
}

// WriteNBT encodes root and gzips it. Output is deterministic: the gzip
// header carries no name and a zero modification time.
func WriteNBT(name string, root nbt.Compound) ([]byte, error) {
	raw, err := nbt.Encode(name, root)
	if err != nil {
		return nil, err
	}
	return Compress(raw)
}

// Decompress inflates a gzip stream, refusing output larger than limit.
// Input that already looks like raw NBT is returned unchanged. A limit of
// zero or less means DefaultMaxDecompressedSize.
func Decompress(data []byte, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxDecompressedSize
	}
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("%w: empty input", io.ErrUnexpectedEOF)
	case isGzip(data):
	case data[0] == byte(nbt.TagCompound):
		if int64(len(data)) > limit {
			return nil, ErrTooLarge
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: leading byte %#02x", ErrNotCompressed, data[0])
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", eofToUnexpected(err))
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("gzip body: %w", eofToUnexpected(err))
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return raw, nil
}

// Compress gzips raw at the default level.
func Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func eofToUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
