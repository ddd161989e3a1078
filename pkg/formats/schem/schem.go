// Package schem implements the Sponge schematic format, version 2.
//
// A .schem file holds a single box of blocks. Blocks are varint-encoded
// palette ids in x, then z, then y order; the palette maps block state
// strings such as "minecraft:oak_stairs[facing=north]" to ids. Models with
// several regions are written as their merged region.
package schem

import (
	"cmp"
	"fmt"
	"math"

	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

const (
	// Version is the Sponge version written.
	Version = 2
	// DefaultDataVersion is written when the model carries no data version.
	DefaultDataVersion = 1343
	// RootName is the name of the root compound.
	RootName = "Schematic"
)

// Options tunes a Codec. Zero values select defaults.
type Options struct {
	DataVersion int32
	// MaxBlocks caps the box volume on decode. Default formats.MaxBlocks(0).
	MaxBlocks int
}

// Codec reads and writes Sponge schematics.
type Codec struct {
	opts Options
}

// Ensure Codec implements formats.Codec.
var _ formats.Codec = (*Codec)(nil)

// New returns a Codec.
func New(opts Options) *Codec {
	if opts.DataVersion == 0 {
		opts.DataVersion = DefaultDataVersion
	}
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = formats.MaxBlocks(0)
	}
	return &Codec{opts: opts}
}

// Format returns formats.Schematic.
func (c *Codec) Format() formats.Format { return formats.Schematic }

// FromNBT builds a single-region model from a Sponge root compound.
func (c *Codec) FromNBT(root nbt.Compound) (*schematic.Schematic, error) {
	if inner, err := nbt.Get[nbt.Compound](root, RootName); err == nil {
		root = inner
	}
	version, err := nbt.Get[nbt.Int](root, "Version")
	if err != nil {
		return nil, malformed(err)
	}
	if version != 1 && version != 2 {
		return nil, fmt.Errorf("%w: sponge schematic version %d", formats.ErrUnsupportedVersion, version)
	}

	var dims [3]int
	for i, k := range []string{"Width", "Height", "Length"} {
		v, err := nbt.Get[nbt.Short](root, k)
		if err != nil {
			return nil, malformed(err)
		}
		dims[i] = int(uint16(v))
		if dims[i] == 0 {
			return nil, fmt.Errorf("%w: %s is zero", formats.ErrMalformed, k)
		}
	}
	offset := schematic.Position{}
	if arr, err := nbt.Get[nbt.IntArray](root, "Offset"); err == nil {
		if len(arr) != 3 {
			return nil, fmt.Errorf("%w: Offset has %d values", formats.ErrMalformed, len(arr))
		}
		offset = schematic.Pos(int(arr[0]), int(arr[1]), int(arr[2]))
	}
	box := schematic.FromPositionAndSize(offset, schematic.Pos(dims[0], dims[1], dims[2]))
	if err := box.CheckVolume(); err != nil {
		return nil, malformed(err)
	}
	if err := formats.CheckBlocks(box.Volume(), c.opts.MaxBlocks); err != nil {
		return nil, err
	}

	palette, present, err := decodePalette(root)
	if err != nil {
		return nil, err
	}
	data, err := nbt.Get[nbt.ByteArray](root, "BlockData")
	if err != nil {
		return nil, malformed(err)
	}
	blocks, err := DecodeVarints(data, box.Volume())
	if err != nil {
		return nil, malformed(err)
	}
	for i, id := range blocks {
		if int(id) >= len(palette) || !present[id] {
			return nil, fmt.Errorf("%w: block %d uses palette id %d not in palette", formats.ErrMalformed, i, id)
		}
	}

	r, err := schematic.NewRegionFromPalette(schematic.DefaultRegionName, box, palette, blocks)
	if err != nil {
		return nil, malformed(err)
	}

	beKey := "BlockEntities"
	if version == 1 {
		beKey = "TileEntities"
	}
	for i, it := range nbt.Lookup(root, beKey, nbt.List{}).Items {
		tc, ok := it.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("%w: block entity %d is %s", formats.ErrMalformed, i, it.Type())
		}
		be, err := decodeBlockEntity(tc, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: block entity %d: %v", formats.ErrMalformed, i, err)
		}
		r.SetBlockEntity(be)
	}
	for i, it := range nbt.Lookup(root, "Entities", nbt.List{}).Items {
		ec, ok := it.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("%w: entity %d is %s", formats.ErrMalformed, i, it.Type())
		}
		e, err := decodeEntity(ec, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: entity %d: %v", formats.ErrMalformed, i, err)
		}
		r.AddEntity(e)
	}

	meta := nbt.Lookup(root, "Metadata", nbt.Compound(nil))
	s := schematic.New(string(nbt.Lookup(meta, "Name", nbt.String(""))))
	s.Metadata.Author = string(nbt.Lookup(meta, "Author", nbt.String("")))
	s.Metadata.Description = string(nbt.Lookup(meta, "Description", nbt.String("")))
	s.Metadata.Created = int64(nbt.Lookup(meta, "TimeCreated", nbt.Long(0)))
	s.Metadata.Modified = int64(nbt.Lookup(meta, "TimeModified", nbt.Long(0)))
	s.Metadata.LitematicVersion = int32(nbt.Lookup(meta, "lm_version", nbt.Int(0)))
	s.Metadata.WorldEditVersion = int32(nbt.Lookup(meta, "we_version", nbt.Int(0)))
	s.Metadata.DataVersion = int32(nbt.Lookup(root, "DataVersion", nbt.Lookup(meta, "mc_version", nbt.Int(0))))
	s.AddRegion(r)
	return s, nil
}

// decodePalette returns the palette indexed by id. present marks ids that
// appear in the palette compound; gaps are filled with air.
func decodePalette(root nbt.Compound) ([]schematic.BlockState, []bool, error) {
	pc, err := nbt.Get[nbt.Compound](root, "Palette")
	if err != nil {
		return nil, nil, malformed(err)
	}
	maxID := -1
	for _, f := range pc {
		id, ok := f.Value.(nbt.Int)
		if !ok {
			return nil, nil, fmt.Errorf("%w: palette entry %q is %s", formats.ErrMalformed, f.Name, f.Value.Type())
		}
		if id < 0 || int(id) >= len(pc) {
			return nil, nil, fmt.Errorf("%w: palette id %d for %q outside 0..%d", formats.ErrMalformed, id, f.Name, len(pc)-1)
		}
		maxID = max(maxID, int(id))
	}
	palette := make([]schematic.BlockState, maxID+1)
	present := make([]bool, maxID+1)
	for i := range palette {
		palette[i] = schematic.Air()
	}
	for _, f := range pc {
		id := int(f.Value.(nbt.Int))
		if present[id] {
			return nil, nil, fmt.Errorf("%w: palette id %d used twice", formats.ErrMalformed, id)
		}
		b, err := schematic.ParseBlockState(f.Name)
		if err != nil {
			return nil, nil, malformed(err)
		}
		palette[id], present[id] = b, true
	}
	return palette, present, nil
}

func decodeBlockEntity(c nbt.Compound, offset schematic.Position) (schematic.BlockEntity, error) {
	pos, err := nbt.Get[nbt.IntArray](c, "Pos")
	if err != nil {
		return schematic.BlockEntity{}, err
	}
	if len(pos) != 3 {
		return schematic.BlockEntity{}, fmt.Errorf("Pos has %d values", len(pos))
	}
	return schematic.BlockEntity{
		ID:   string(nbt.Lookup(c, "Id", nbt.Lookup(c, "id", nbt.String("")))),
		Pos:  offset.Add(schematic.Pos(int(pos[0]), int(pos[1]), int(pos[2]))),
		Data: c.Without("Id", "id", "Pos"),
	}, nil
}

func decodeEntity(c nbt.Compound, offset schematic.Position) (schematic.Entity, error) {
	pos, err := nbt.Get[nbt.List](c, "Pos")
	if err != nil {
		return schematic.Entity{}, err
	}
	if pos.Elem != nbt.TagDouble || pos.Len() != 3 {
		return schematic.Entity{}, fmt.Errorf("Pos must be three doubles, got %d %s", pos.Len(), pos.Elem)
	}
	e := schematic.Entity{
		ID:   string(nbt.Lookup(c, "Id", nbt.Lookup(c, "id", nbt.String("")))),
		Data: c.Without("Id", "id", "Pos"),
	}
	for i := range 3 {
		e.Pos[i] = float64(pos.Items[i].(nbt.Double))
	}
	return e.Translate(float64(offset.X), float64(offset.Y), float64(offset.Z)), nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", formats.ErrMalformed, err)
}

// ToNBT builds the Sponge root compound for the merged region of s.
func (c *Codec) ToNBT(s *schematic.Schematic) (string, nbt.Compound, error) {
	r := s.MergedRegion()
	if err := r.Validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %v", formats.ErrUnrepresentable, err)
	}
	for i, n := range []int{r.Size.X, r.Size.Y, r.Size.Z} {
		if n > math.MaxUint16 {
			axis := [...]string{"width", "height", "length"}[i]
			return "", nil, fmt.Errorf("%w: %s %d exceeds %d", formats.ErrUnrepresentable, axis, n, math.MaxUint16)
		}
	}
	if !fitsInt32(r.Position) || !fitsInt32(r.Bounds().Max) {
		return "", nil, fmt.Errorf("%w: offset %v outside int32 range", formats.ErrUnrepresentable, r.Position)
	}

	palette, remap := compactPalette(r.Palette)
	paletteTag := make(nbt.Compound, len(palette))
	for id, b := range palette {
		paletteTag[id] = nbt.Field{Name: b.String(), Value: nbt.Int(id)}
	}
	data := make([]byte, 0, len(r.Blocks))
	for _, idx := range r.Blocks {
		data = AppendVarint(data, remap[idx])
	}

	origin := r.Position
	blockEntities := nbt.List{Elem: nbt.TagCompound}
	for _, be := range r.SortedBlockEntities() {
		rel := be.Pos.Sub(origin)
		tc := nbt.Compound{{Name: "Pos", Value: nbt.IntArray{int32(rel.X), int32(rel.Y), int32(rel.Z)}}}
		if be.ID != "" {
			tc.Set("Id", nbt.String(be.ID))
		}
		tc = append(tc, be.Data...)
		blockEntities.Items = append(blockEntities.Items, tc)
	}
	entities := nbt.List{Elem: nbt.TagCompound}
	for _, e := range r.Entities {
		rel := e.Translate(-float64(origin.X), -float64(origin.Y), -float64(origin.Z))
		ec := nbt.Compound{{Name: "Pos", Value: nbt.NewList(nbt.Double(rel.Pos[0]), nbt.Double(rel.Pos[1]), nbt.Double(rel.Pos[2]))}}
		if e.ID != "" {
			ec.Set("Id", nbt.String(e.ID))
		}
		ec = append(ec, e.Data...)
		entities.Items = append(entities.Items, ec)
	}

	dataVersion := cmp.Or(s.Metadata.DataVersion, c.opts.DataVersion)
	root := nbt.Compound{
		{Name: "Version", Value: nbt.Int(Version)},
		{Name: "DataVersion", Value: nbt.Int(dataVersion)},
		{Name: "Metadata", Value: encodeMetadata(s.Metadata, dataVersion)},
		{Name: "Width", Value: nbt.Short(uint16(r.Size.X))},
		{Name: "Height", Value: nbt.Short(uint16(r.Size.Y))},
		{Name: "Length", Value: nbt.Short(uint16(r.Size.Z))},
		{Name: "Offset", Value: nbt.IntArray{int32(origin.X), int32(origin.Y), int32(origin.Z)}},
		{Name: "PaletteMax", Value: nbt.Int(len(palette))},
		{Name: "Palette", Value: paletteTag},
		{Name: "BlockData", Value: nbt.ByteArray(data)},
		{Name: "BlockEntities", Value: blockEntities},
		{Name: "Entities", Value: entities},
	}
	return RootName, root, nil
}

// compactPalette drops duplicate states, keeping first occurrences in
// order. remap maps old indices to new ids.
func compactPalette(in []schematic.BlockState) ([]schematic.BlockState, []uint32) {
	out := make([]schematic.BlockState, 0, len(in))
	remap := make([]uint32, len(in))
	seen := make(map[string]uint32, len(in))
	for i, b := range in {
		key := b.String()
		if id, ok := seen[key]; ok {
			remap[i] = id
			continue
		}
		id := uint32(len(out))
		seen[key] = id
		remap[i] = id
		out = append(out, b)
	}
	return out, remap
}

// encodeMetadata mirrors dataVersion into mc_version so readers that only
// look at Metadata see the game version too.
func encodeMetadata(md schematic.Metadata, dataVersion int32) nbt.Compound {
	var c nbt.Compound
	if md.Name != "" {
		c.Set("Name", nbt.String(md.Name))
	}
	if md.Author != "" {
		c.Set("Author", nbt.String(md.Author))
	}
	if md.Description != "" {
		c.Set("Description", nbt.String(md.Description))
	}
	if md.Created != 0 {
		c.Set("TimeCreated", nbt.Long(md.Created))
	}
	if md.Modified != 0 {
		c.Set("TimeModified", nbt.Long(md.Modified))
	}
	if md.LitematicVersion != 0 {
		c.Set("lm_version", nbt.Int(md.LitematicVersion))
	}
	if dataVersion != 0 {
		c.Set("mc_version", nbt.Int(dataVersion))
	}
	if md.WorldEditVersion != 0 {
		c.Set("we_version", nbt.Int(md.WorldEditVersion))
	}
	if c == nil {
		c = nbt.Compound{}
	}
	return c
}

func fitsInt32(p schematic.Position) bool {
	for _, v := range []int{p.X, p.Y, p.Z} {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
	}
	return true
}
