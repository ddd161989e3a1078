package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/schemconv/pkg/schematic"
)

// Chunks lists the non-air blocks grouped into w x h x l chunks, one
// "Chunk (x, y, z): n blocks" header per chunk followed by its blocks.
func Chunks(s *schematic.Schematic, w, h, l int) (string, error) {
	seq, err := s.Chunks(w, h, l)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Chunks (%dx%dx%d):\n", w, h, l)
	for c := range seq {
		fmt.Fprintf(&b, "  Chunk %s: %d blocks\n", schematic.Pos(c.X, c.Y, c.Z), len(c.Blocks))
		for _, pb := range c.Blocks {
			fmt.Fprintf(&b, "    %s: %s\n", pb.Pos, pb.State)
		}
	}
	return b.String(), nil
}

// ParseChunkSize reads "N" for an N-cube or "WxHxL".
func ParseChunkSize(v string) (w, h, l int, err error) {
	parts := strings.Split(v, "x")
	if len(parts) == 1 {
		parts = []string{v, v, v}
	}
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid chunk size %q: want N or WxHxL", v)
	}
	dims := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return 0, 0, 0, fmt.Errorf("invalid chunk size %q: dimensions must be positive integers", v)
		}
		dims[i] = n
	}
	return dims[0], dims[1], dims[2], nil
}
