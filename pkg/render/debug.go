package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/schemconv/pkg/nbt"
	"github.com/matzehuels/schemconv/pkg/schematic"
)

// UnnamedLabel stands in for an empty schematic name in headers.
const UnnamedLabel = "Unnamed"

// Header returns the one-line identification used at the top of Debug.
func Header(s *schematic.Schematic) string {
	name := s.Metadata.Name
	if name == "" {
		name = UnnamedLabel
	}
	return fmt.Sprintf("Schematic name: %s, Regions: %d", name, len(s.Regions))
}

// Debug renders the full structure: metadata, each region's palette,
// every block with its palette index, entities and block entities.
func Debug(s *schematic.Schematic) string {
	var b strings.Builder
	b.WriteString(Header(s))
	b.WriteByte('\n')
	writeMetadata(&b, s.Metadata)
	b.WriteString("Regions:\n")
	for _, r := range s.SortedRegions() {
		box := r.Bounds()
		fmt.Fprintf(&b, "  Region: %s\n", r.Name)
		fmt.Fprintf(&b, "    Position: %s\n", r.Position)
		fmt.Fprintf(&b, "    Size: %s\n", r.Size)
		b.WriteString("    Palette:\n")
		for i, st := range r.Palette {
			fmt.Fprintf(&b, "      %d: %s\n", i, st)
		}
		b.WriteString("    Blocks:\n")
		for i, idx := range r.Blocks {
			fmt.Fprintf(&b, "      %d @ %s: %s\n", idx, box.Coords(i), r.Palette[idx])
		}
		if len(r.Entities) > 0 {
			b.WriteString("    Entities:\n")
			for _, e := range r.Entities {
				fmt.Fprintf(&b, "      %s @ (%s, %s, %s) %s\n", e.ID,
					formatFloat(e.Pos[0]), formatFloat(e.Pos[1]), formatFloat(e.Pos[2]), nbt.Stringify(e.Data))
			}
		}
		if len(r.BlockEntities) > 0 {
			b.WriteString("    Block entities:\n")
			for _, be := range r.SortedBlockEntities() {
				fmt.Fprintf(&b, "      %s @ %s %s\n", be.ID, be.Pos, nbt.Stringify(be.Data))
			}
		}
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
