package schematic

import (
	"slices"

	"github.com/matzehuels/schemconv/pkg/nbt"
)

// Entity is a free-standing object (mob, item frame, armor stand) at a
// double-precision position. Data keeps every other tag verbatim so
// entities survive format conversion unchanged.
type Entity struct {
	ID   string
	Pos  [3]float64
	Data nbt.Compound
}

// Equal compares id, position and data.
func (e Entity) Equal(o Entity) bool {
	return e.ID == o.ID && e.Pos == o.Pos && e.Data.Equal(o.Data)
}

// Translate returns e moved by d.
func (e Entity) Translate(dx, dy, dz float64) Entity {
	e.Pos = [3]float64{e.Pos[0] + dx, e.Pos[1] + dy, e.Pos[2] + dz}
	return e
}

// BlockEntity is extra data bound to one block, such as chest contents or
// sign text.
type BlockEntity struct {
	ID   string
	Pos  Position
	Data nbt.Compound
}

// Equal compares id, position and data.
func (b BlockEntity) Equal(o BlockEntity) bool {
	return b.ID == o.ID && b.Pos == o.Pos && b.Data.Equal(o.Data)
}

func cloneEntities(in []Entity) []Entity {
	out := slices.Clone(in)
	for i := range out {
		out[i].Data = out[i].Data.Clone()
	}
	return out
}
