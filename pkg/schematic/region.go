package schematic

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Region is a box of blocks stored as palette indices. Palette[0] is
// always air. A Region is not safe for concurrent mutation.
type Region struct {
	Name string

	// Position is the minimum corner; Size is always positive.
	Position Position
	Size     Position

	Blocks        []uint32
	Palette       []BlockState
	Entities      []Entity
	BlockEntities map[Position]BlockEntity

	lookup    map[string]uint32
	lookupLen int
}

// NewRegion creates an all-air region. size may be negative on any axis.
func NewRegion(name string, pos, size Position) *Region {
	box := FromPositionAndSize(pos, size)
	return &Region{
		Name:          name,
		Position:      box.Min,
		Size:          box.Size(),
		Blocks:        make([]uint32, box.Volume()),
		Palette:       []BlockState{Air()},
		BlockEntities: make(map[Position]BlockEntity),
	}
}

// NewRegionFromPalette assembles a region from decoded storage. Air is moved
// to palette index 0 (inserted if absent) and every block index is checked
// against the palette.
func NewRegionFromPalette(name string, box BoundingBox, palette []BlockState, blocks []uint32) (*Region, error) {
	if len(blocks) != box.Volume() {
		return nil, fmt.Errorf("region %q: %d blocks for volume %d", name, len(blocks), box.Volume())
	}
	for i, idx := range blocks {
		if int(idx) >= len(palette) {
			return nil, fmt.Errorf("region %q: block %d uses palette index %d of %d", name, i, idx, len(palette))
		}
	}

	air := slices.IndexFunc(palette, BlockState.IsAir)
	if air != 0 {
		// remap[old] = new, with air pinned at 0
		var fixed []BlockState
		remap := make([]uint32, len(palette))
		fixed = append(fixed, Air())
		for i, b := range palette {
			if i == air {
				remap[i] = 0
				continue
			}
			remap[i] = uint32(len(fixed))
			fixed = append(fixed, b)
		}
		out := make([]uint32, len(blocks))
		for i, idx := range blocks {
			out[i] = remap[idx]
		}
		palette, blocks = fixed, out
	}

	return &Region{
		Name:          name,
		Position:      box.Min,
		Size:          box.Size(),
		Blocks:        blocks,
		Palette:       palette,
		BlockEntities: make(map[Position]BlockEntity),
	}, nil
}

// Bounds returns the region's bounding box in schematic coordinates.
func (r *Region) Bounds() BoundingBox {
	return FromPositionAndSize(r.Position, r.Size)
}

// Volume returns the number of positions in the region.
func (r *Region) Volume() int { return r.Bounds().Volume() }

// Contains reports whether p is inside the region.
func (r *Region) Contains(p Position) bool { return r.Bounds().Contains(p) }

// BlockIndex returns the palette index stored at p.
func (r *Region) BlockIndex(p Position) (uint32, bool) {
	box := r.Bounds()
	if !box.Contains(p) {
		return 0, false
	}
	return r.Blocks[box.Index(p)], true
}

// Block returns the block state at p.
func (r *Region) Block(p Position) (BlockState, bool) {
	idx, ok := r.BlockIndex(p)
	if !ok {
		return BlockState{}, false
	}
	return r.Palette[idx], true
}

// SetBlock stores b at p, growing the region when p lies outside it.
func (r *Region) SetBlock(p Position, b BlockState) {
	if !r.Contains(p) {
		r.ExpandToFit(p)
	}
	r.Blocks[r.Bounds().Index(p)] = r.PaletteIndex(b)
}

// PaletteIndex returns the palette index of b, appending it when new.
func (r *Region) PaletteIndex(b BlockState) uint32 {
	if r.lookup == nil || r.lookupLen != len(r.Palette) {
		r.lookup = make(map[string]uint32, len(r.Palette))
		for i, s := range r.Palette {
			if _, dup := r.lookup[s.String()]; !dup {
				r.lookup[s.String()] = uint32(i)
			}
		}
		r.lookupLen = len(r.Palette)
	}
	key := b.String()
	if idx, ok := r.lookup[key]; ok {
		return idx
	}
	r.Palette = append(r.Palette, b)
	idx := uint32(len(r.Palette) - 1)
	r.lookup[key] = idx
	r.lookupLen = len(r.Palette)
	return idx
}

// ExpandToFit grows the region so that it contains p. Existing blocks keep
// their coordinates; new space is air.
func (r *Region) ExpandToFit(p Position) {
	r.resize(r.Bounds().Union(BoundingBox{Min: p, Max: p}))
}

func (r *Region) resize(box BoundingBox) {
	old := r.Bounds()
	if box == old {
		return
	}
	blocks := make([]uint32, box.Volume())
	for i, idx := range r.Blocks {
		blocks[box.Index(old.Coords(i))] = idx
	}
	r.Position = box.Min
	r.Size = box.Size()
	r.Blocks = blocks
}

// Merge folds other into r. The result covers both boxes; air in other
// never overwrites blocks in r. Entities are appended and block entities
// from other replace those at the same position.
func (r *Region) Merge(other *Region) {
	r.resize(r.Bounds().Union(other.Bounds()))
	box := r.Bounds()
	otherBox := other.Bounds()
	for i, idx := range other.Blocks {
		b := other.Palette[idx]
		if b.IsAir() {
			continue
		}
		r.Blocks[box.Index(otherBox.Coords(i))] = r.PaletteIndex(b)
	}
	r.Entities = append(r.Entities, cloneEntities(other.Entities)...)
	if r.BlockEntities == nil {
		r.BlockEntities = make(map[Position]BlockEntity)
	}
	for p, be := range other.BlockEntities {
		r.BlockEntities[p] = be
	}
}

// CountBlocks returns the number of non-air blocks.
func (r *Region) CountBlocks() int {
	n := 0
	for _, idx := range r.Blocks {
		if !r.Palette[idx].IsAir() {
			n++
		}
	}
	return n
}

// BlockCount is the number of occurrences of one block state.
type BlockCount struct {
	State BlockState
	Count int
}

// CountBlockTypes returns per-state counts, most common first, ties
// broken by the state's string form.
func (r *Region) CountBlockTypes() []BlockCount {
	counts := make([]int, len(r.Palette))
	for _, idx := range r.Blocks {
		counts[idx]++
	}
	merged := make(map[string]*BlockCount)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		key := r.Palette[i].String()
		if bc, ok := merged[key]; ok {
			bc.Count += c
			continue
		}
		merged[key] = &BlockCount{State: r.Palette[i], Count: c}
	}
	out := make([]BlockCount, 0, len(merged))
	for _, bc := range merged {
		out = append(out, *bc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].State.String() < out[j].State.String()
	})
	return out
}

// AddEntity appends an entity.
func (r *Region) AddEntity(e Entity) { r.Entities = append(r.Entities, e) }

// RemoveEntity removes and returns the entity at index i.
func (r *Region) RemoveEntity(i int) (Entity, bool) {
	if i < 0 || i >= len(r.Entities) {
		return Entity{}, false
	}
	e := r.Entities[i]
	r.Entities = slices.Delete(r.Entities, i, i+1)
	return e, true
}

// SetBlockEntity stores be at its position, replacing any existing one.
func (r *Region) SetBlockEntity(be BlockEntity) {
	if r.BlockEntities == nil {
		r.BlockEntities = make(map[Position]BlockEntity)
	}
	r.BlockEntities[be.Pos] = be
}

// BlockEntity returns the block entity at p.
func (r *Region) BlockEntity(p Position) (BlockEntity, bool) {
	be, ok := r.BlockEntities[p]
	return be, ok
}

// RemoveBlockEntity removes and returns the block entity at p.
func (r *Region) RemoveBlockEntity(p Position) (BlockEntity, bool) {
	be, ok := r.BlockEntities[p]
	if ok {
		delete(r.BlockEntities, p)
	}
	return be, ok
}

// SortedBlockEntities returns block entities in storage order (y, z, x).
func (r *Region) SortedBlockEntities() []BlockEntity {
	keys := slices.SortedFunc(maps.Keys(r.BlockEntities), func(a, b Position) int {
		switch {
		case a == b:
			return 0
		case a.Less(b):
			return -1
		}
		return 1
	})
	out := make([]BlockEntity, len(keys))
	for i, k := range keys {
		out[i] = r.BlockEntities[k]
	}
	return out
}

// Validate checks internal consistency.
func (r *Region) Validate() error {
	if len(r.Palette) == 0 || !r.Palette[0].IsAir() {
		return fmt.Errorf("region %q: palette index 0 is not air", r.Name)
	}
	if r.Size.X <= 0 || r.Size.Y <= 0 || r.Size.Z <= 0 {
		return fmt.Errorf("region %q: non-positive size %v", r.Name, r.Size)
	}
	if len(r.Blocks) != r.Volume() {
		return fmt.Errorf("region %q: %d blocks for volume %d", r.Name, len(r.Blocks), r.Volume())
	}
	for i, idx := range r.Blocks {
		if int(idx) >= len(r.Palette) {
			return fmt.Errorf("region %q: block %d uses palette index %d of %d", r.Name, i, idx, len(r.Palette))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (r *Region) Clone() *Region {
	c := &Region{
		Name:          r.Name,
		Position:      r.Position,
		Size:          r.Size,
		Blocks:        slices.Clone(r.Blocks),
		Palette:       make([]BlockState, len(r.Palette)),
		Entities:      cloneEntities(r.Entities),
		BlockEntities: make(map[Position]BlockEntity, len(r.BlockEntities)),
	}
	for i, b := range r.Palette {
		c.Palette[i] = BlockState{Name: b.Name, Properties: slices.Clone(b.Properties)}
	}
	for p, be := range r.BlockEntities {
		be.Data = be.Data.Clone()
		c.BlockEntities[p] = be
	}
	return c
}

// Equal reports strict equality: same name, bounds, palette order, blocks,
// entities and block entities.
func (r *Region) Equal(o *Region) bool {
	if r.Name != o.Name || r.Position != o.Position || r.Size != o.Size {
		return false
	}
	if !slices.Equal(r.Blocks, o.Blocks) {
		return false
	}
	if !slices.EqualFunc(r.Palette, o.Palette, BlockState.Equal) {
		return false
	}
	return sameContents(r, o)
}

// sameContents compares entities and block entities.
func sameContents(r, o *Region) bool {
	if !slices.EqualFunc(r.Entities, o.Entities, Entity.Equal) {
		return false
	}
	if len(r.BlockEntities) != len(o.BlockEntities) {
		return false
	}
	for p, be := range r.BlockEntities {
		ob, ok := o.BlockEntities[p]
		if !ok || !be.Equal(ob) {
			return false
		}
	}
	return true
}
