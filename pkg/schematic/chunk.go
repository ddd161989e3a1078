package schematic

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// PlacedBlock is a block state at an absolute position.
type PlacedBlock struct {
	Pos   Position
	State BlockState
}

// Chunk is one cell of a fixed-size grid laid over the schematic. X, Y and
// Z are grid coordinates, so the chunk covers X*w..X*w+w-1 and so on.
type Chunk struct {
	X, Y, Z int
	Blocks  []PlacedBlock
}

// Compare orders positions the same way as Less.
func (p Position) Compare(o Position) int {
	return cmp.Or(cmp.Compare(p.Y, o.Y), cmp.Compare(p.Z, o.Z), cmp.Compare(p.X, o.X))
}

// Blocks yields every non-air block in y, z, x order. Where regions overlap
// the first region by name owns the position, as with Block.
func (s *Schematic) Blocks() iter.Seq[PlacedBlock] {
	return func(yield func(PlacedBlock) bool) {
		for _, b := range s.placedBlocks(nil) {
			if !yield(b) {
				return
			}
		}
	}
}

// BlocksIn yields the non-air blocks inside box in y, z, x order.
func (s *Schematic) BlocksIn(box BoundingBox) iter.Seq[PlacedBlock] {
	return func(yield func(PlacedBlock) bool) {
		for _, b := range s.placedBlocks(&box) {
			if !yield(b) {
				return
			}
		}
	}
}

// Chunks groups the non-air blocks into w x h x l cells. Chunks come in
// y, z, x order of their grid coordinates and blocks keep y, z, x order
// inside each chunk. Empty chunks are skipped. Grid coordinates round
// towards negative infinity, so x=-1 with w=16 is in chunk -1.
func (s *Schematic) Chunks(w, h, l int) (iter.Seq[Chunk], error) {
	if w < 1 || h < 1 || l < 1 {
		return nil, fmt.Errorf("chunk size %dx%dx%d must be positive", w, h, l)
	}
	size := Pos(w, h, l)
	return func(yield func(Chunk) bool) {
		blocks := s.placedBlocks(nil)
		slices.SortStableFunc(blocks, func(a, b PlacedBlock) int {
			return chunkOf(a.Pos, size).Compare(chunkOf(b.Pos, size))
		})
		for len(blocks) > 0 {
			key := chunkOf(blocks[0].Pos, size)
			n := 1
			for n < len(blocks) && chunkOf(blocks[n].Pos, size) == key {
				n++
			}
			c := Chunk{X: key.X, Y: key.Y, Z: key.Z, Blocks: blocks[:n:n]}
			if !yield(c) {
				return
			}
			blocks = blocks[n:]
		}
	}, nil
}

// placedBlocks collects non-air blocks, optionally clipped to box, sorted
// in y, z, x order.
func (s *Schematic) placedBlocks(box *BoundingBox) []PlacedBlock {
	regions := s.SortedRegions()
	var out []PlacedBlock
	for i, r := range regions {
		rb := r.Bounds()
		if box != nil && !rb.Intersects(*box) {
			continue
		}
	blocks:
		for idx, pi := range r.Blocks {
			state := r.Palette[pi]
			if state.IsAir() {
				continue
			}
			p := rb.Coords(idx)
			if box != nil && !box.Contains(p) {
				continue
			}
			for _, earlier := range regions[:i] {
				if earlier.Contains(p) {
					continue blocks
				}
			}
			out = append(out, PlacedBlock{Pos: p, State: state})
		}
	}
	if len(regions) > 1 {
		slices.SortFunc(out, func(a, b PlacedBlock) int { return a.Pos.Compare(b.Pos) })
	}
	return out
}

func chunkOf(p, size Position) Position {
	return Position{floorDiv(p.X, size.X), floorDiv(p.Y, size.Y), floorDiv(p.Z, size.Z)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
