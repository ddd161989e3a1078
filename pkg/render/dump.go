package render

import (
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

// Output formats accepted by Encode.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Dump is the structured form of a schematic used for JSON and YAML output.
type Dump struct {
	Metadata MetadataDump `json:"metadata" yaml:"metadata"`
	Regions  []RegionDump `json:"regions" yaml:"regions"`
}

// MetadataDump mirrors schematic.Metadata with stable field names.
type MetadataDump struct {
	Name                string `json:"name,omitempty" yaml:"name,omitempty"`
	Author              string `json:"author,omitempty" yaml:"author,omitempty"`
	Description         string `json:"description,omitempty" yaml:"description,omitempty"`
	Created             int64  `json:"created,omitempty" yaml:"created,omitempty"`
	Modified            int64  `json:"modified,omitempty" yaml:"modified,omitempty"`
	LitematicVersion    int32  `json:"litematic_version,omitempty" yaml:"litematic_version,omitempty"`
	LitematicSubVersion int32  `json:"litematic_subversion,omitempty" yaml:"litematic_subversion,omitempty"`
	DataVersion         int32  `json:"data_version,omitempty" yaml:"data_version,omitempty"`
	WorldEditVersion    int32  `json:"worldedit_version,omitempty" yaml:"worldedit_version,omitempty"`
}

// RegionDump describes one region. Blocks is only filled for full dumps.
type RegionDump struct {
	Name          string            `json:"name" yaml:"name"`
	Position      [3]int            `json:"position" yaml:"position,flow"`
	Size          [3]int            `json:"size" yaml:"size,flow"`
	Volume        int               `json:"volume" yaml:"volume"`
	BlockCount    int               `json:"block_count" yaml:"block_count"`
	Palette       []string          `json:"palette" yaml:"palette"`
	Counts        []CountDump       `json:"counts" yaml:"counts"`
	Blocks        []uint32          `json:"blocks,omitempty" yaml:"blocks,omitempty,flow"`
	Entities      []EntityDump      `json:"entities,omitempty" yaml:"entities,omitempty"`
	BlockEntities []BlockEntityDump `json:"block_entities,omitempty" yaml:"block_entities,omitempty"`
}

// CountDump is the number of positions holding one block state.
type CountDump struct {
	State string `json:"state" yaml:"state"`
	Count int    `json:"count" yaml:"count"`
}

// EntityDump describes an entity; Data holds the remaining NBT as plain values.
type EntityDump struct {
	ID   string         `json:"id" yaml:"id"`
	Pos  [3]float64     `json:"pos" yaml:"pos,flow"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// BlockEntityDump describes a block entity.
type BlockEntityDump struct {
	ID   string         `json:"id" yaml:"id"`
	Pos  [3]int         `json:"pos" yaml:"pos,flow"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewDump builds the structured form of s. With blocks set, every
// region's palette indices are included in storage order.
func NewDump(s *schematic.Schematic, blocks bool) Dump {
	md := s.Metadata
	d := Dump{
		Metadata: MetadataDump{
			Name:                md.Name,
			Author:              md.Author,
			Description:         md.Description,
			Created:             md.Created,
			Modified:            md.Modified,
			LitematicVersion:    md.LitematicVersion,
			LitematicSubVersion: md.LitematicSubVersion,
			DataVersion:         md.DataVersion,
			WorldEditVersion:    md.WorldEditVersion,
		},
		Regions: []RegionDump{},
	}
	for _, r := range s.SortedRegions() {
		rd := RegionDump{
			Name:       r.Name,
			Position:   [3]int{r.Position.X, r.Position.Y, r.Position.Z},
			Size:       [3]int{r.Size.X, r.Size.Y, r.Size.Z},
			Volume:     r.Volume(),
			BlockCount: r.CountBlocks(),
			Palette:    make([]string, len(r.Palette)),
			Counts:     []CountDump{},
		}
		for i, st := range r.Palette {
			rd.Palette[i] = st.String()
		}
		for _, c := range r.CountBlockTypes() {
			rd.Counts = append(rd.Counts, CountDump{State: c.State.String(), Count: c.Count})
		}
		if blocks {
			rd.Blocks = r.Blocks
		}
		for _, e := range r.Entities {
			rd.Entities = append(rd.Entities, EntityDump{ID: e.ID, Pos: e.Pos, Data: dataValue(e.Data)})
		}
		for _, be := range r.SortedBlockEntities() {
			rd.BlockEntities = append(rd.BlockEntities, BlockEntityDump{
				ID:   be.ID,
				Pos:  [3]int{be.Pos.X, be.Pos.Y, be.Pos.Z},
				Data: dataValue(be.Data),
			})
		}
		d.Regions = append(d.Regions, rd)
	}
	return d
}

func dataValue(c nbt.Compound) map[string]any {
	if len(c) == 0 {
		return nil
	}
	return nbt.ToValue(c).(map[string]any)
}

// JSON renders the full dump as indented JSON.
func JSON(s *schematic.Schematic) ([]byte, error) {
	return json.MarshalIndent(NewDump(s, true), "", "  ")
}

// YAML renders the full dump as YAML.
func YAML(s *schematic.Schematic) ([]byte, error) {
	return yaml.Marshal(NewDump(s, true))
}

// Encode renders s in one of the Output* formats. Text output is Debug.
func Encode(s *schematic.Schematic, output string) ([]byte, error) {
	switch output {
	case "", OutputText:
		return []byte(Debug(s)), nil
	case OutputJSON:
		return JSON(s)
	case OutputYAML:
		return YAML(s)
	}
	return nil, fmt.Errorf("unknown output %q (want text, json or yaml)", output)
}
