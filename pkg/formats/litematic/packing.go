package litematic

import (
	"fmt"
	"math/bits"
)

// BitsPerEntry returns the packed width for a palette of n entries:
// ceil(log2(n)), never less than two.
func BitsPerEntry(n int) int {
	if n <= 1 {
		return 2
	}
	return max(2, bits.Len(uint(n-1)))
}

// PackedLen returns the number of longs needed for count entries.
func PackedLen(count, width int) int {
	return (count*width + 63) / 64
}

// Pack stores values LSB-first in consecutive longs. A value may straddle
// two longs.
func Pack(values []uint32, width int) []int64 {
	out := make([]uint64, PackedLen(len(values), width))
	mask := uint64(1)<<width - 1
	for i, v := range values {
		bit := i * width
		word, off := bit/64, bit%64
		val := uint64(v) & mask
		out[word] |= val << off
		if off+width > 64 {
			out[word+1] |= val >> (64 - off)
		}
	}
	longs := make([]int64, len(out))
	for i, u := range out {
		longs[i] = int64(u)
	}
	return longs
}

// Unpack is the inverse of Pack for count entries.
func Unpack(longs []int64, width, count int) ([]uint32, error) {
	if width < 1 || width > 32 {
		return nil, fmt.Errorf("invalid entry width %d", width)
	}
	if need := PackedLen(count, width); len(longs) < need {
		return nil, fmt.Errorf("block states: %d longs for %d entries of %d bits (need %d)", len(longs), count, width, need)
	}
	mask := uint64(1)<<width - 1
	out := make([]uint32, count)
	for i := range out {
		bit := i * width
		word, off := bit/64, bit%64
		val := uint64(longs[word]) >> off
		if off+width > 64 {
			val |= uint64(longs[word+1]) << (64 - off)
		}
		out[i] = uint32(val & mask)
	}
	return out, nil
}
