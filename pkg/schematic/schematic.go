// Package schematic defines the canonical in-memory model of a block
// structure: named regions of palette-indexed blocks plus entities, block
// entities and descriptive metadata.
//
// Format codecs (see pkg/formats) decode into and encode from this model;
// nothing here knows about bytes on disk.
//
//	s := schematic.New("House")
//	s.SetBlock(schematic.Pos(0, 0, 0), schematic.NewBlockState("minecraft:stone"))
//	r, _ := s.Region(schematic.DefaultRegionName)
//	fmt.Println(r.CountBlocks())
package schematic

import (
	"maps"
	"slices"
)

// DefaultRegionName is the region created for single-region formats.
const DefaultRegionName = "Main"

// Schematic is a collection of named regions.
type Schematic struct {
	Metadata      Metadata
	Regions       map[string]*Region
	DefaultRegion string
}

// New creates an empty schematic named name.
func New(name string) *Schematic {
	return &Schematic{
		Metadata:      Metadata{Name: name},
		Regions:       make(map[string]*Region),
		DefaultRegion: DefaultRegionName,
	}
}

// AddRegion adds r, replacing any region of the same name.
func (s *Schematic) AddRegion(r *Region) {
	if s.Regions == nil {
		s.Regions = make(map[string]*Region)
	}
	s.Regions[r.Name] = r
}

// Region returns the named region.
func (s *Schematic) Region(name string) (*Region, bool) {
	r, ok := s.Regions[name]
	return r, ok
}

// RemoveRegion deletes the named region and returns it.
func (s *Schematic) RemoveRegion(name string) (*Region, bool) {
	r, ok := s.Regions[name]
	if ok {
		delete(s.Regions, name)
	}
	return r, ok
}

// RegionNames returns region names in sorted order.
func (s *Schematic) RegionNames() []string {
	return slices.Sorted(maps.Keys(s.Regions))
}

// SortedRegions returns regions in name order.
func (s *Schematic) SortedRegions() []*Region {
	names := s.RegionNames()
	out := make([]*Region, len(names))
	for i, n := range names {
		out[i] = s.Regions[n]
	}
	return out
}

// SetBlock sets a block in the default region, creating it on first use.
func (s *Schematic) SetBlock(p Position, b BlockState) {
	r, ok := s.Regions[s.defaultName()]
	if !ok {
		r = NewRegion(s.defaultName(), p, Pos(1, 1, 1))
		s.AddRegion(r)
	}
	r.SetBlock(p, b)
}

// Block returns the block at p from the first region (by name) containing it.
func (s *Schematic) Block(p Position) (BlockState, bool) {
	for _, r := range s.SortedRegions() {
		if b, ok := r.Block(p); ok {
			return b, true
		}
	}
	return BlockState{}, false
}

func (s *Schematic) defaultName() string {
	if s.DefaultRegion == "" {
		return DefaultRegionName
	}
	return s.DefaultRegion
}

// Bounds returns the union of all region boxes. ok is false when the
// schematic has no regions.
func (s *Schematic) Bounds() (box BoundingBox, ok bool) {
	for i, r := range s.SortedRegions() {
		if i == 0 {
			box = r.Bounds()
			continue
		}
		box = box.Union(r.Bounds())
	}
	return box, len(s.Regions) > 0
}

// MergedRegion folds all regions, in name order, into one region named
// after the default region. An empty schematic yields a single air block.
func (s *Schematic) MergedRegion() *Region {
	regions := s.SortedRegions()
	if len(regions) == 0 {
		return NewRegion(s.defaultName(), Position{}, Pos(1, 1, 1))
	}
	merged := regions[0].Clone()
	merged.Name = s.defaultName()
	for _, r := range regions[1:] {
		merged.Merge(r)
	}
	return merged
}

// CountBlocks returns the number of non-air blocks across regions.
func (s *Schematic) CountBlocks() int {
	n := 0
	for _, r := range s.Regions {
		n += r.CountBlocks()
	}
	return n
}

// TotalVolume sums region volumes.
func (s *Schematic) TotalVolume() int {
	n := 0
	for _, r := range s.Regions {
		n += r.Volume()
	}
	return n
}

// Clone returns a deep copy.
func (s *Schematic) Clone() *Schematic {
	c := &Schematic{
		Metadata:      s.Metadata,
		Regions:       make(map[string]*Region, len(s.Regions)),
		DefaultRegion: s.DefaultRegion,
	}
	for n, r := range s.Regions {
		c.Regions[n] = r.Clone()
	}
	return c
}

// Validate checks every region.
func (s *Schematic) Validate() error {
	for _, r := range s.SortedRegions() {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports strict structural equality, including palette order and
// all metadata. It is the equality of a same-format round trip.
func (s *Schematic) Equal(o *Schematic) bool {
	if s.Metadata != o.Metadata || len(s.Regions) != len(o.Regions) {
		return false
	}
	for n, r := range s.Regions {
		or, ok := o.Regions[n]
		if !ok || !r.Equal(or) {
			return false
		}
	}
	return true
}

// Equivalent reports whether a and b describe the same structure in a
// way both formats can carry: merged bounds, the block state at every
// position, entities, block entities, and the descriptive metadata.
// Region names, palette order and format version numbers are ignored.
func Equivalent(a, b *Schematic) bool {
	if !a.Metadata.SameDescription(b.Metadata) {
		return false
	}
	ma, mb := a.MergedRegion(), b.MergedRegion()
	if ma.Bounds() != mb.Bounds() {
		return false
	}
	for i := range ma.Blocks {
		if !ma.Palette[ma.Blocks[i]].Equal(mb.Palette[mb.Blocks[i]]) {
			return false
		}
	}
	return sameContents(ma, mb)
}
