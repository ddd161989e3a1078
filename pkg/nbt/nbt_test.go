package nbt

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func sampleCompound() Compound {
	var c Compound
	c.Set("byte", Byte(-7))
	c.Set("short", Short(-1234))
	c.Set("int", Int(math.MaxInt32))
	c.Set("long", Long(math.MinInt64))
	c.Set("float", Float(1.5))
	c.Set("double", Double(-0.25))
	c.Set("bytes", ByteArray{0, 1, 0xff})
	c.Set("string", String("minecraft:stone"))
	c.Set("ints", IntArray{1, -2, 3})
	c.Set("longs", LongArray{-3013672028691362751, 33756})
	c.Set("list", NewList(Double(1), Double(2), Double(3)))
	c.Set("empty", List{})
	var inner Compound
	inner.Set("Name", String("minecraft:air"))
	c.Set("nested", NewList(inner, inner))
	return c
}

func TestRoundTrip(t *testing.T) {
	root := sampleCompound()
	data, err := Encode("Schematic", root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	name, got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if name != "Schematic" {
		t.Errorf("name = %q, want Schematic", name)
	}
	if !got.Equal(root) {
		t.Errorf("decoded compound differs:\n got %s\nwant %s", Stringify(got), Stringify(root))
	}

	again, err := Encode(name, got)
	if err != nil {
		t.Fatalf("Encode again: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoding decoded tree changed bytes")
	}
}

func TestFieldOrderPreserved(t *testing.T) {
	var c Compound
	c.Set("z", Int(1))
	c.Set("a", Int(2))
	c.Set("m", Int(3))

	data, err := Encode("", c)
	if err != nil {
		t.Fatal(err)
	}
	_, got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	keys := got.Keys()
	want := []string{"z", "a", "m"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
}

func TestKnownBytes(t *testing.T) {
	var c Compound
	c.Set("x", Short(2))
	data, err := Encode("r", c)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		10, 0, 1, 'r', // root compound "r"
		2, 0, 1, 'x', 0, 2, // short x = 2
		0, // end
	}
	if !bytes.Equal(data, want) {
		t.Errorf("Encode = %v, want %v", data, want)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode("Schematic", sampleCompound())
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < len(data); n++ {
		_, _, err := Decode(data[:n])
		if err == nil {
			t.Fatalf("Decode(prefix %d/%d) succeeded, want error", n, len(data))
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Decode(prefix %d) error %T, want *SyntaxError", n, err)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("Decode(prefix %d) = %v, want ErrUnexpectedEOF", n, err)
		}
	}
}

func TestDecodeArrays(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Tag
	}{
		{"int array", []byte{
			10, 0, 0,
			11, 0, 1, 'a', 0, 0, 0, 2,
			0xff, 0xff, 0xff, 0xfe,
			0, 0, 1, 0,
			0,
		}, IntArray{-2, 256}},
		{"long array", []byte{
			10, 0, 0,
			12, 0, 1, 'a', 0, 0, 0, 2,
			0x80, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0, 0, 0, 0x83, 0xdc,
			0,
		}, LongArray{math.MinInt64, 33756}},
		{"empty long array", []byte{10, 0, 0, 12, 0, 1, 'a', 0, 0, 0, 0, 0}, LongArray{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, root, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			got, ok := root.Get("a")
			if !ok {
				t.Fatal("field a missing")
			}
			if !Equal(got, tt.want) {
				t.Errorf("a = %v, want %v", got, tt.want)
			}
			// dropping the end tag and one payload byte must not yield values
			if len(tt.data) > 12 {
				if _, _, err := Decode(tt.data[:len(tt.data)-2]); !errors.Is(err, io.ErrUnexpectedEOF) {
					t.Errorf("truncated payload: error = %v, want ErrUnexpectedEOF", err)
				}
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"root not compound", []byte{8, 0, 0, 0, 0}},
		{"unknown tag type", []byte{10, 0, 0, 99, 0, 0}},
		{"negative array length", []byte{10, 0, 0, 7, 0, 1, 'a', 0xff, 0xff, 0xff, 0xff, 0}},
		{"huge array length", []byte{10, 0, 0, 11, 0, 1, 'a', 0x7f, 0xff, 0xff, 0xff, 0}},
		{"list of end with items", []byte{10, 0, 0, 9, 0, 1, 'a', 0, 0, 0, 0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); err == nil {
				t.Error("Decode succeeded, want error")
			}
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{10, 0, 0})
	for range MaxDepth + 1 {
		buf.Write([]byte{10, 0, 1, 'c'})
	}
	for range MaxDepth + 2 {
		buf.WriteByte(0)
	}
	if _, _, err := Decode(buf.Bytes()); err == nil {
		t.Error("Decode of over-deep tree succeeded, want error")
	}
}

func TestGet(t *testing.T) {
	c := sampleCompound()

	v, err := Get[Int](c, "int")
	if err != nil || v != math.MaxInt32 {
		t.Errorf("Get[Int] = %v, %v", v, err)
	}

	_, err = Get[Int](c, "missing")
	if !errors.Is(err, ErrMissing) {
		t.Errorf("Get missing error = %v, want ErrMissing", err)
	}

	_, err = Get[Int](c, "string")
	if !errors.Is(err, ErrWrongType) {
		t.Errorf("Get wrong type error = %v, want ErrWrongType", err)
	}

	if got := Lookup(c, "missing", Int(42)); got != 42 {
		t.Errorf("Lookup default = %v, want 42", got)
	}
}

func TestCompoundSetDelete(t *testing.T) {
	var c Compound
	c.Set("a", Int(1))
	c.Set("b", Int(2))
	c.Set("a", Int(3))
	if len(c) != 2 {
		t.Fatalf("len = %d, want 2", len(c))
	}
	if v, _ := c.Get("a"); v != Int(3) {
		t.Errorf("a = %v, want 3", v)
	}
	c.Delete("a")
	if c.Has("a") || !c.Has("b") {
		t.Errorf("after Delete keys = %v", c.Keys())
	}
	if w := sampleCompound().Without("byte", "short"); w.Has("byte") || w.Has("short") || !w.Has("int") {
		t.Errorf("Without keys = %v", w.Keys())
	}
}

func TestEqual(t *testing.T) {
	nan := Double(math.NaN())
	tests := []struct {
		name string
		a, b Tag
		want bool
	}{
		{"same int", Int(1), Int(1), true},
		{"int vs long", Int(1), Long(1), false},
		{"nan bits", nan, nan, true},
		{"arrays", IntArray{1, 2}, IntArray{1, 2}, true},
		{"arrays differ", LongArray{1, 2}, LongArray{1, 3}, false},
		{"list", NewList(String("a")), NewList(String("a")), true},
		{"compound order", Compound{{"a", Int(1)}, {"b", Int(2)}}, Compound{{"b", Int(2)}, {"a", Int(1)}}, true},
		{"nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	var c Compound
	c.Set("id", String("minecraft:chest"))
	c.Set("Count", Byte(1))
	c.Set("Pos", IntArray{1, 2, 3})
	got := Stringify(c)
	want := `{id:"minecraft:chest",Count:1b,Pos:[I;1,2,3]}`
	if got != want {
		t.Errorf("Stringify = %s, want %s", got, want)
	}
}

func TestToValue(t *testing.T) {
	v := ToValue(sampleCompound()).(map[string]any)
	if v["string"] != "minecraft:stone" {
		t.Errorf("string = %v", v["string"])
	}
	if l, ok := v["list"].([]any); !ok || len(l) != 3 {
		t.Errorf("list = %#v", v["list"])
	}
	if b, ok := v["bytes"].([]int8); !ok || b[2] != -1 {
		t.Errorf("bytes = %#v", v["bytes"])
	}
}

func TestEncodeErrors(t *testing.T) {
	bad := Compound{{Name: "l", Value: List{Elem: TagInt, Items: []Tag{Int(1), String("x")}}}}
	if _, err := Encode("", bad); err == nil {
		t.Error("mixed list encoded without error")
	}
	if _, err := Encode("", Compound{{Name: "nil"}}); err == nil {
		t.Error("nil value encoded without error")
	}
}

func TestCompoundClone(t *testing.T) {
	orig := cloneFixture()
	c := orig.Clone()
	if !c.Equal(orig) {
		t.Fatal("Clone() is not equal to the original")
	}

	c[0].Value = Byte(0)
	nested, _ := Get[Compound](c, "nested")
	nested[0].Value = Int(99)
	list, _ := Get[List](c, "list")
	list.Items[0].(Compound)[0].Value = Int(99)
	raw, _ := Get[ByteArray](c, "bytes")
	raw[0] = 42
	longs, _ := Get[LongArray](c, "longs")
	longs[0] = 42

	if !orig.Equal(cloneFixture()) {
		t.Errorf("mutating the clone changed the original:\n%s", Stringify(orig))
	}
	if Compound(nil).Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

// cloneFixture is sampleCompound with nested compounds at two depths.
func cloneFixture() Compound {
	c := sampleCompound()
	var inner Compound
	inner.Set("v", Int(1))
	c.Set("nested", inner)
	c.Set("list", NewList(Compound{{Name: "x", Value: Int(2)}}))
	return c
}
