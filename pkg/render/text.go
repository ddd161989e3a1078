// Package render produces human-readable and structured views of a
// schematic model: the text summary, the verbose debug dump, JSON and YAML
// dumps, and per-layer block grids for terminal viewers.
//
// Every function here is a pure projection of the model and is
// deterministic: regions are visited in name order and counts are sorted.
package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/schemconv/pkg/schematic"
)

// Text renders the summary: metadata, then each region with its bounds,
// volume, non-air block count and per-type counts.
func Text(s *schematic.Schematic) string {
	var b strings.Builder
	b.WriteString("Schematic:\n")
	writeMetadata(&b, s.Metadata)
	b.WriteString("Regions:\n")
	for _, r := range s.SortedRegions() {
		fmt.Fprintf(&b, "  Region: %s\n", r.Name)
		fmt.Fprintf(&b, "    Position: %s\n", r.Position)
		fmt.Fprintf(&b, "    Size: %s\n", r.Size)
		fmt.Fprintf(&b, "    Volume: %d\n", r.Volume())
		fmt.Fprintf(&b, "    Blocks: %d\n", r.CountBlocks())
		counts := nonAir(r.CountBlockTypes())
		if len(counts) == 0 {
			continue
		}
		b.WriteString("    Block types:\n")
		for _, c := range counts {
			fmt.Fprintf(&b, "      %s: %d\n", c.State, c.Count)
		}
	}
	return b.String()
}

func writeMetadata(b *strings.Builder, md schematic.Metadata) {
	b.WriteString("Metadata:\n")
	field := func(label, v string) {
		if v != "" {
			fmt.Fprintf(b, "  %s: %s\n", label, v)
		}
	}
	number := func(label string, v int64) {
		if v != 0 {
			fmt.Fprintf(b, "  %s: %d\n", label, v)
		}
	}
	field("Name", md.Name)
	field("Author", md.Author)
	field("Description", md.Description)
	number("Created", md.Created)
	number("Modified", md.Modified)
	number("Litematic Version", int64(md.LitematicVersion))
	number("Data Version", int64(md.DataVersion))
	number("WorldEdit Version", int64(md.WorldEditVersion))
}

func nonAir(counts []schematic.BlockCount) []schematic.BlockCount {
	out := counts[:0:0]
	for _, c := range counts {
		if !c.State.IsAir() {
			out = append(out, c)
		}
	}
	return out
}
