// Package litematic implements the Litematica .litematic format.
//
// A litematic file is a gzipped NBT compound holding descriptive metadata
// and any number of named regions. Each region stores its blocks as a
// packed long array of indices into a per-region palette (see [Pack]).
// Regions are independent, so the codec decodes and encodes them in
// parallel and assembles the result in name order.
package litematic

import (
	"cmp"
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

const (
	// MaxVersion is the newest litematic version this codec reads.
	MaxVersion = 7
	// DefaultVersion is written when the model carries no version.
	DefaultVersion = 6
	// DefaultDataVersion is written when the model carries no data version.
	DefaultDataVersion = 3700
)

// Options tunes a Codec. Zero values select defaults.
type Options struct {
	// Workers bounds parallel region processing. Default GOMAXPROCS.
	Workers int
	// Version and DataVersion are written when the model has none.
	Version     int32
	DataVersion int32
	// MaxBlocks caps the total volume of all regions on decode.
	// Default formats.MaxBlocks(0).
	MaxBlocks int
}

// Codec reads and writes litematic files.
type Codec struct {
	opts Options
}

// Ensure Codec implements formats.Codec.
var _ formats.Codec = (*Codec)(nil)

// New returns a Codec.
func New(opts Options) *Codec {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Version == 0 {
		opts.Version = DefaultVersion
	}
	if opts.DataVersion == 0 {
		opts.DataVersion = DefaultDataVersion
	}
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = formats.MaxBlocks(0)
	}
	return &Codec{opts: opts}
}

// Format returns formats.Litematic.
func (c *Codec) Format() formats.Format { return formats.Litematic }

// =============================================================================
// Decoding
// =============================================================================

// FromNBT builds a model from a litematic root compound.
func (c *Codec) FromNBT(root nbt.Compound) (*schematic.Schematic, error) {
	version, err := nbt.Get[nbt.Int](root, "Version")
	if err != nil {
		return nil, malformed(err)
	}
	if version < 1 || version > MaxVersion {
		return nil, fmt.Errorf("%w: litematic version %d (max %d)", formats.ErrUnsupportedVersion, version, MaxVersion)
	}
	dataVersion, err := nbt.Get[nbt.Int](root, "MinecraftDataVersion")
	if err != nil {
		return nil, malformed(err)
	}
	meta, err := nbt.Get[nbt.Compound](root, "Metadata")
	if err != nil {
		return nil, malformed(err)
	}
	regions, err := nbt.Get[nbt.Compound](root, "Regions")
	if err != nil {
		return nil, malformed(err)
	}

	s := schematic.New(string(nbt.Lookup(meta, "Name", nbt.String(""))))
	s.Metadata.Author = string(nbt.Lookup(meta, "Author", nbt.String("")))
	s.Metadata.Description = string(nbt.Lookup(meta, "Description", nbt.String("")))
	s.Metadata.Created = int64(nbt.Lookup(meta, "TimeCreated", nbt.Long(0)))
	s.Metadata.Modified = int64(nbt.Lookup(meta, "TimeModified", nbt.Long(0)))
	s.Metadata.LitematicVersion = int32(version)
	s.Metadata.LitematicSubVersion = int32(nbt.Lookup(root, "SubVersion", nbt.Int(0)))
	s.Metadata.DataVersion = int32(dataVersion)

	// Sizes are checked up front so no region allocates past the budget.
	boxes := make([]schematic.BoundingBox, len(regions))
	total := 0
	for i, f := range regions {
		rc, ok := f.Value.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("%w: region %q is %s, not a compound", formats.ErrMalformed, f.Name, f.Value.Type())
		}
		if boxes[i], err = regionBox(f.Name, rc); err != nil {
			return nil, err
		}
		total += boxes[i].Volume()
		if err := formats.CheckBlocks(total, c.opts.MaxBlocks); err != nil {
			return nil, fmt.Errorf("region %q: %w", f.Name, err)
		}
	}

	decoded := make([]*schematic.Region, len(regions))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(c.opts.Workers)
	for i, f := range regions {
		g.Go(func() error {
			r, err := decodeRegion(f.Name, f.Value.(nbt.Compound), boxes[i])
			if err != nil {
				return err
			}
			decoded[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range decoded {
		if _, dup := s.Regions[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", formats.ErrMalformed, r.Name)
		}
		s.AddRegion(r)
	}
	if len(s.Regions) == 1 {
		s.DefaultRegion = decoded[0].Name
	}
	return s, nil
}

func regionBox(name string, rc nbt.Compound) (schematic.BoundingBox, error) {
	pos, err := vec3(rc, "Position")
	if err != nil {
		return schematic.BoundingBox{}, regionErr(name, err)
	}
	size, err := vec3(rc, "Size")
	if err != nil {
		return schematic.BoundingBox{}, regionErr(name, err)
	}
	box := schematic.FromPositionAndSize(pos, size)
	if err := box.CheckVolume(); err != nil {
		return schematic.BoundingBox{}, regionErr(name, err)
	}
	return box, nil
}

func decodeRegion(name string, rc nbt.Compound, box schematic.BoundingBox) (*schematic.Region, error) {
	paletteList, err := nbt.Get[nbt.List](rc, "BlockStatePalette")
	if err != nil {
		return nil, regionErr(name, err)
	}
	palette := make([]schematic.BlockState, len(paletteList.Items))
	for i, it := range paletteList.Items {
		pc, ok := it.(nbt.Compound)
		if !ok {
			return nil, regionErr(name, fmt.Errorf("palette entry %d is %s", i, it.Type()))
		}
		if palette[i], err = decodeBlockState(pc); err != nil {
			return nil, regionErr(name, fmt.Errorf("palette entry %d: %w", i, err))
		}
	}
	if len(palette) == 0 {
		return nil, regionErr(name, fmt.Errorf("empty palette"))
	}

	states, err := nbt.Get[nbt.LongArray](rc, "BlockStates")
	if err != nil {
		return nil, regionErr(name, err)
	}
	blocks, err := Unpack(states, BitsPerEntry(len(palette)), box.Volume())
	if err != nil {
		return nil, regionErr(name, err)
	}
	r, err := schematic.NewRegionFromPalette(name, box, palette, blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", formats.ErrMalformed, err)
	}

	for i, it := range nbt.Lookup(rc, "TileEntities", nbt.List{}).Items {
		tc, ok := it.(nbt.Compound)
		if !ok {
			return nil, regionErr(name, fmt.Errorf("tile entity %d is %s", i, it.Type()))
		}
		be, err := decodeTileEntity(tc, box.Min)
		if err != nil {
			return nil, regionErr(name, fmt.Errorf("tile entity %d: %w", i, err))
		}
		r.SetBlockEntity(be)
	}
	for i, it := range nbt.Lookup(rc, "Entities", nbt.List{}).Items {
		ec, ok := it.(nbt.Compound)
		if !ok {
			return nil, regionErr(name, fmt.Errorf("entity %d is %s", i, it.Type()))
		}
		e, err := decodeEntity(ec, box.Min)
		if err != nil {
			return nil, regionErr(name, fmt.Errorf("entity %d: %w", i, err))
		}
		r.AddEntity(e)
	}
	return r, nil
}

func decodeBlockState(c nbt.Compound) (schematic.BlockState, error) {
	name, err := nbt.Get[nbt.String](c, "Name")
	if err != nil {
		return schematic.BlockState{}, err
	}
	b := schematic.BlockState{Name: string(name)}
	for _, p := range nbt.Lookup(c, "Properties", nbt.Compound(nil)) {
		v, ok := p.Value.(nbt.String)
		if !ok {
			return schematic.BlockState{}, fmt.Errorf("property %q is %s", p.Name, p.Value.Type())
		}
		b = b.With(p.Name, string(v))
	}
	return b, nil
}

func decodeTileEntity(c nbt.Compound, origin schematic.Position) (schematic.BlockEntity, error) {
	var rel [3]nbt.Int
	for i, k := range []string{"x", "y", "z"} {
		v, err := nbt.Get[nbt.Int](c, k)
		if err != nil {
			return schematic.BlockEntity{}, err
		}
		rel[i] = v
	}
	id := nbt.Lookup(c, "id", nbt.Lookup(c, "Id", nbt.String("")))
	return schematic.BlockEntity{
		ID:   string(id),
		Pos:  origin.Add(schematic.Pos(int(rel[0]), int(rel[1]), int(rel[2]))),
		Data: c.Without("id", "Id", "x", "y", "z"),
	}, nil
}

func decodeEntity(c nbt.Compound, origin schematic.Position) (schematic.Entity, error) {
	pos, err := nbt.Get[nbt.List](c, "Pos")
	if err != nil {
		return schematic.Entity{}, err
	}
	if pos.Elem != nbt.TagDouble || pos.Len() != 3 {
		return schematic.Entity{}, fmt.Errorf("Pos must be three doubles, got %d %s", pos.Len(), pos.Elem)
	}
	id := nbt.Lookup(c, "id", nbt.Lookup(c, "Id", nbt.String("")))
	e := schematic.Entity{ID: string(id), Data: c.Without("id", "Id", "Pos")}
	for i := range 3 {
		e.Pos[i] = float64(pos.Items[i].(nbt.Double))
	}
	return e.Translate(float64(origin.X), float64(origin.Y), float64(origin.Z)), nil
}

func vec3(c nbt.Compound, name string) (schematic.Position, error) {
	v, err := nbt.Get[nbt.Compound](c, name)
	if err != nil {
		return schematic.Position{}, err
	}
	var xyz [3]nbt.Int
	for i, k := range []string{"x", "y", "z"} {
		if xyz[i], err = nbt.Get[nbt.Int](v, k); err != nil {
			return schematic.Position{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return schematic.Pos(int(xyz[0]), int(xyz[1]), int(xyz[2])), nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", formats.ErrMalformed, err)
}

func regionErr(name string, err error) error {
	return fmt.Errorf("%w: region %q: %v", formats.ErrMalformed, name, err)
}

// =============================================================================
// Encoding
// =============================================================================

// ToNBT builds the litematic root compound for s. The root tag is unnamed.
func (c *Codec) ToNBT(s *schematic.Schematic) (string, nbt.Compound, error) {
	regions := s.SortedRegions()
	if len(regions) == 0 {
		regions = []*schematic.Region{s.MergedRegion()}
	}
	for _, r := range regions {
		if err := errors.ValidateRegionName(r.Name); err != nil {
			return "", nil, fmt.Errorf("%w: %v", formats.ErrUnrepresentable, err)
		}
		if err := r.Validate(); err != nil {
			return "", nil, fmt.Errorf("%w: %v", formats.ErrUnrepresentable, err)
		}
	}

	encoded := make([]nbt.Compound, len(regions))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(c.opts.Workers)
	for i, r := range regions {
		g.Go(func() error {
			encoded[i] = encodeRegion(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	var regionTags nbt.Compound
	totalBlocks, totalVolume := 0, 0
	box := regions[0].Bounds()
	for i, r := range regions {
		regionTags = append(regionTags, nbt.Field{Name: r.Name, Value: encoded[i]})
		totalBlocks += r.CountBlocks()
		totalVolume += r.Volume()
		box = box.Union(r.Bounds())
	}
	enclosing := box.Size()

	md := s.Metadata
	meta := nbt.Compound{
		{Name: "Author", Value: nbt.String(md.Author)},
		{Name: "Description", Value: nbt.String(md.Description)},
		{Name: "EnclosingSize", Value: xyz(enclosing)},
		{Name: "Name", Value: nbt.String(md.Name)},
		{Name: "RegionCount", Value: nbt.Int(len(regions))},
		{Name: "TimeCreated", Value: nbt.Long(md.Created)},
		{Name: "TimeModified", Value: nbt.Long(md.Modified)},
		{Name: "TotalBlocks", Value: nbt.Int(totalBlocks)},
		{Name: "TotalVolume", Value: nbt.Int(totalVolume)},
	}

	root := nbt.Compound{
		{Name: "MinecraftDataVersion", Value: nbt.Int(cmp.Or(md.DataVersion, c.opts.DataVersion))},
		{Name: "Version", Value: nbt.Int(cmp.Or(md.LitematicVersion, c.opts.Version))},
	}
	if md.LitematicSubVersion != 0 {
		root.Set("SubVersion", nbt.Int(md.LitematicSubVersion))
	}
	root.Set("Metadata", meta)
	root.Set("Regions", regionTags)
	return "", root, nil
}

func encodeRegion(r *schematic.Region) nbt.Compound {
	palette := make([]nbt.Tag, len(r.Palette))
	for i, b := range r.Palette {
		palette[i] = encodeBlockState(b)
	}
	origin := r.Position

	tiles := nbt.List{Elem: nbt.TagCompound}
	for _, be := range r.SortedBlockEntities() {
		rel := be.Pos.Sub(origin)
		tc := nbt.Compound{}
		if be.ID != "" {
			tc.Set("id", nbt.String(be.ID))
		}
		tc.Set("x", nbt.Int(rel.X))
		tc.Set("y", nbt.Int(rel.Y))
		tc.Set("z", nbt.Int(rel.Z))
		tc = append(tc, be.Data...)
		tiles.Items = append(tiles.Items, tc)
	}

	entities := nbt.List{Elem: nbt.TagCompound}
	for _, e := range r.Entities {
		rel := e.Translate(-float64(origin.X), -float64(origin.Y), -float64(origin.Z))
		ec := nbt.Compound{}
		if e.ID != "" {
			ec.Set("id", nbt.String(e.ID))
		}
		ec.Set("Pos", nbt.NewList(nbt.Double(rel.Pos[0]), nbt.Double(rel.Pos[1]), nbt.Double(rel.Pos[2])))
		ec = append(ec, e.Data...)
		entities.Items = append(entities.Items, ec)
	}

	return nbt.Compound{
		{Name: "BlockStatePalette", Value: nbt.List{Elem: nbt.TagCompound, Items: palette}},
		{Name: "BlockStates", Value: nbt.LongArray(Pack(r.Blocks, BitsPerEntry(len(r.Palette))))},
		{Name: "Entities", Value: entities},
		{Name: "PendingBlockTicks", Value: nbt.List{Elem: nbt.TagCompound}},
		{Name: "PendingFluidTicks", Value: nbt.List{Elem: nbt.TagCompound}},
		{Name: "Position", Value: xyz(r.Position)},
		{Name: "Size", Value: xyz(r.Size)},
		{Name: "TileEntities", Value: tiles},
	}
}

func encodeBlockState(b schematic.BlockState) nbt.Compound {
	c := nbt.Compound{{Name: "Name", Value: nbt.String(b.Name)}}
	if len(b.Properties) > 0 {
		props := make(nbt.Compound, 0, len(b.Properties))
		for _, p := range b.Properties {
			props = append(props, nbt.Field{Name: p.Key, Value: nbt.String(p.Value)})
		}
		c = append(c, nbt.Field{Name: "Properties", Value: props})
	}
	return c
}

func xyz(p schematic.Position) nbt.Compound {
	return nbt.Compound{
		{Name: "x", Value: nbt.Int(p.X)},
		{Name: "y", Value: nbt.Int(p.Y)},
		{Name: "z", Value: nbt.Int(p.Z)},
	}
}

