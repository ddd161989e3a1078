package schematic

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

// chunkFixture has region "a" along x=-2..1 at y=0 and region "b" as a
// column at x=0 covering y=0..1. "a" owns the overlap at the origin.
func chunkFixture() *Schematic {
	s := New("Chunks")
	a := NewRegion("a", Pos(-2, 0, 0), Pos(4, 1, 1))
	a.SetBlock(Pos(-2, 0, 0), stone)
	a.SetBlock(Pos(-1, 0, 0), dirt)
	a.SetBlock(Pos(0, 0, 0), stone)
	b := NewRegion("b", Pos(0, 0, 0), Pos(1, 2, 1))
	b.SetBlock(Pos(0, 0, 0), dirt)
	b.SetBlock(Pos(0, 1, 0), stone)
	s.AddRegion(a)
	s.AddRegion(b)
	return s
}

func describeChunk(c Chunk) string {
	parts := make([]string, len(c.Blocks))
	for i, b := range c.Blocks {
		parts[i] = fmt.Sprintf("%d,%d,%d=%s", b.Pos.X, b.Pos.Y, b.Pos.Z, b.State.Name)
	}
	return fmt.Sprintf("[%d %d %d] %s", c.X, c.Y, c.Z, strings.Join(parts, " "))
}

func TestBlocks(t *testing.T) {
	var got []string
	for b := range chunkFixture().Blocks() {
		got = append(got, fmt.Sprintf("%v=%s", b.Pos, b.State))
	}
	want := []string{
		"(-2, 0, 0)=minecraft:stone",
		"(-1, 0, 0)=minecraft:dirt",
		"(0, 0, 0)=minecraft:stone",
		"(0, 1, 0)=minecraft:stone",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Blocks() = %v, want %v", got, want)
	}
}

func TestBlocksIn(t *testing.T) {
	var got []Position
	for b := range chunkFixture().BlocksIn(NewBoundingBox(Pos(-1, 0, 0), Pos(0, 0, 0))) {
		got = append(got, b.Pos)
	}
	if want := []Position{Pos(-1, 0, 0), Pos(0, 0, 0)}; !slices.Equal(got, want) {
		t.Errorf("BlocksIn() = %v, want %v", got, want)
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name    string
		w, h, l int
		want    []string
	}{
		{"two wide", 2, 1, 1, []string{
			"[-1 0 0] -2,0,0=minecraft:stone -1,0,0=minecraft:dirt",
			"[0 0 0] 0,0,0=minecraft:stone",
			"[0 1 0] 0,1,0=minecraft:stone",
		}},
		{"sixteen cube", 16, 16, 16, []string{
			"[-1 0 0] -2,0,0=minecraft:stone -1,0,0=minecraft:dirt",
			"[0 0 0] 0,0,0=minecraft:stone 0,1,0=minecraft:stone",
		}},
		{"single blocks", 1, 1, 1, []string{
			"[-2 0 0] -2,0,0=minecraft:stone",
			"[-1 0 0] -1,0,0=minecraft:dirt",
			"[0 0 0] 0,0,0=minecraft:stone",
			"[0 1 0] 0,1,0=minecraft:stone",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := chunkFixture().Chunks(tt.w, tt.h, tt.l)
			if err != nil {
				t.Fatalf("Chunks error: %v", err)
			}
			var got []string
			for c := range seq {
				got = append(got, describeChunk(c))
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Chunks(%d, %d, %d) =\n%s\nwant\n%s", tt.w, tt.h, tt.l,
					strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestChunksStopEarly(t *testing.T) {
	seq, err := chunkFixture().Chunks(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("visited %d chunks, want 2", n)
	}
}

func TestChunksErrors(t *testing.T) {
	for _, size := range [][3]int{{0, 1, 1}, {1, -4, 1}, {1, 1, 0}} {
		if _, err := chunkFixture().Chunks(size[0], size[1], size[2]); err == nil {
			t.Errorf("Chunks%v succeeded, want error", size)
		}
	}
	seq, err := New("empty").Chunks(16, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	for c := range seq {
		t.Errorf("empty schematic yielded chunk %v", c)
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{0, 16, 0},
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
