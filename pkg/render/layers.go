package render

import (
	"strings"

	"github.com/matzehuels/schemconv/pkg/schematic"
)

// glyphs are assigned to palette entries in order; air is always '.'.
const glyphs = "#@%&*+=oxOX0123456789abcdefghijklmnopqrstuvwyzABCDEFGHIJKLMNPQRSTUVWYZ"

// Legend maps a glyph to the block state it stands for.
type Legend struct {
	Glyph rune
	State schematic.BlockState
}

// Layer is one horizontal slice of a region, rows ordered by z and
// columns by x.
type Layer struct {
	Y      int
	Rows   []string
	Legend []Legend
}

// Layers slices r into one Layer per y level, bottom first. States beyond
// the glyph set share '?'.
func Layers(r *schematic.Region) []Layer {
	glyphOf := make([]rune, len(r.Palette))
	var legend []int // palette indices with a legend entry
	next := 0
	for i, st := range r.Palette {
		switch {
		case st.IsAir():
			glyphOf[i] = '.'
			continue
		case next < len(glyphs):
			glyphOf[i] = rune(glyphs[next])
			next++
		default:
			glyphOf[i] = '?'
		}
		legend = append(legend, i)
	}

	box := r.Bounds()
	layers := make([]Layer, 0, r.Size.Y)
	for y := box.Min.Y; y <= box.Max.Y; y++ {
		l := Layer{Y: y, Rows: make([]string, 0, r.Size.Z)}
		used := make(map[uint32]bool)
		for z := box.Min.Z; z <= box.Max.Z; z++ {
			var row strings.Builder
			for x := box.Min.X; x <= box.Max.X; x++ {
				idx := r.Blocks[box.Index(schematic.Pos(x, y, z))]
				used[idx] = true
				row.WriteRune(glyphOf[idx])
			}
			l.Rows = append(l.Rows, row.String())
		}
		for _, idx := range legend {
			if used[uint32(idx)] {
				l.Legend = append(l.Legend, Legend{Glyph: glyphOf[idx], State: r.Palette[idx]})
			}
		}
		layers = append(layers, l)
	}
	return layers
}
