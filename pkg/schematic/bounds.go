package schematic

import "fmt"

// Position is an integer block coordinate.
type Position struct {
	X, Y, Z int
}

// Pos is shorthand for Position{x, y, z}.
func Pos(x, y, z int) Position { return Position{X: x, Y: y, Z: z} }

// Add returns p + o.
func (p Position) Add(o Position) Position { return Position{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }

// Sub returns p - o.
func (p Position) Sub(o Position) Position { return Position{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

func (p Position) String() string { return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z) }

// Less orders positions by y, then z, then x, matching block storage order.
func (p Position) Less(o Position) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	if p.Z != o.Z {
		return p.Z < o.Z
	}
	return p.X < o.X
}

// BoundingBox is an inclusive axis-aligned box.
type BoundingBox struct {
	Min, Max Position
}

// NewBoundingBox builds the box spanning two corners in any order.
func NewBoundingBox(a, b Position) BoundingBox {
	return BoundingBox{
		Min: Position{min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)},
		Max: Position{max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)},
	}
}

// FromPositionAndSize converts a region origin and signed size to a box.
// A negative size component extends from the origin towards negative
// coordinates, so size -3 at x=0 covers x=-2..0.
func FromPositionAndSize(pos, size Position) BoundingBox {
	return BoundingBox{
		Min: Position{axisMin(pos.X, size.X), axisMin(pos.Y, size.Y), axisMin(pos.Z, size.Z)},
		Max: Position{axisMax(pos.X, size.X), axisMax(pos.Y, size.Y), axisMax(pos.Z, size.Z)},
	}
}

func axisMin(p, s int) int {
	if s < 0 {
		return p + s + 1
	}
	return p
}

func axisMax(p, s int) int {
	if s > 0 {
		return p + s - 1
	}
	return p
}

// Size returns the width (x), height (y) and length (z) as a Position.
func (b BoundingBox) Size() Position {
	return Position{b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1}
}

// Volume returns the number of blocks inside the box.
func (b BoundingBox) Volume() int {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Contains reports whether p is inside the box.
func (b BoundingBox) Contains(p Position) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether the boxes overlap.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Union returns the smallest box containing both.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Position{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y), min(b.Min.Z, o.Min.Z)},
		Max: Position{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y), max(b.Max.Z, o.Max.Z)},
	}
}

// Index maps p to its storage index: x fastest, then z, then y.
func (b BoundingBox) Index(p Position) int {
	s := b.Size()
	dx, dy, dz := p.X-b.Min.X, p.Y-b.Min.Y, p.Z-b.Min.Z
	return dx + dz*s.X + dy*s.X*s.Z
}

// Coords is the inverse of Index.
func (b BoundingBox) Coords(i int) Position {
	s := b.Size()
	return Position{
		X: b.Min.X + i%s.X,
		Y: b.Min.Y + i/(s.X*s.Z),
		Z: b.Min.Z + (i/s.X)%s.Z,
	}
}

// MaxVolume is the largest box volume the model will allocate.
const MaxVolume = 1 << 31

// CheckVolume fails when the box holds more than MaxVolume positions.
func (b BoundingBox) CheckVolume() error {
	s := b.Size()
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return fmt.Errorf("box %v..%v has non-positive size", b.Min, b.Max)
	}
	if xy := s.X * s.Y; xy > MaxVolume || xy*s.Z > MaxVolume {
		return fmt.Errorf("box size %dx%dx%d exceeds %d blocks", s.X, s.Y, s.Z, MaxVolume)
	}
	return nil
}
