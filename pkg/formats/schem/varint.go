package schem

import (
	"errors"
	"fmt"
)

// ErrVarintOverflow is returned when a varint does not terminate within
// 32 bits.
var ErrVarintOverflow = errors.New("varint exceeds 32 bits")

// AppendVarint appends v as an unsigned LEB128 varint.
func AppendVarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// DecodeVarints decodes exactly count varints from data. Trailing bytes,
// a short stream or an overlong varint are errors.
func DecodeVarints(data []byte, count int) ([]uint32, error) {
	if count < 0 || count > len(data) {
		return nil, fmt.Errorf("block data has %d bytes, too short for %d entries", len(data), count)
	}
	out := make([]uint32, 0, count)
	i := 0
	for i < len(data) {
		if len(out) == count {
			return nil, fmt.Errorf("block data has %d trailing bytes after %d entries", len(data)-i, count)
		}
		var v uint32
		shift := 0
		for {
			if i >= len(data) {
				return nil, fmt.Errorf("block data ends inside varint %d", len(out))
			}
			b := data[i]
			i++
			v |= uint32(b&0x7f) << shift
			if b&0x80 == 0 {
				break
			}
			shift += 7
			if shift >= 32 {
				return nil, fmt.Errorf("entry %d: %w", len(out), ErrVarintOverflow)
			}
		}
		out = append(out, v)
	}
	if len(out) != count {
		return nil, fmt.Errorf("block data has %d entries, want %d", len(out), count)
	}
	return out, nil
}
