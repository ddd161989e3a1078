package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxDepth bounds compound/list nesting on decode.
const MaxDepth = 512

// SyntaxError reports malformed or truncated input at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nbt: %s at offset %d: %v", e.Msg, e.Offset, e.Err)
	}
	return fmt.Sprintf("nbt: %s at offset %d", e.Msg, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Read decodes one named root compound from r.
func Read(r io.Reader) (string, Compound, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	return Decode(data)
}

// Decode decodes one named root compound from data. Trailing bytes after
// the root are ignored.
func Decode(data []byte) (string, Compound, error) {
	d := &decoder{buf: data}
	typ, err := d.u8("root tag type")
	if err != nil {
		return "", nil, err
	}
	if TagType(typ) != TagCompound {
		return "", nil, d.fail(0, fmt.Sprintf("root tag is %s, want Compound", TagType(typ)), nil)
	}
	name, err := d.str()
	if err != nil {
		return "", nil, err
	}
	root, err := d.compound(1)
	if err != nil {
		return "", nil, err
	}
	return name, root, nil
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) fail(off int, msg string, err error) error {
	return &SyntaxError{Offset: off, Msg: msg, Err: err}
}

func (d *decoder) take(n int, what string) ([]byte, error) {
	if n < 0 || len(d.buf)-d.off < n {
		return nil, d.fail(d.off, "reading "+what, io.ErrUnexpectedEOF)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u8(what string) (byte, error) {
	b, err := d.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16(what string) (uint16, error) {
	b, err := d.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) u32(what string) (uint32, error) {
	b, err := d.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) u64(what string) (uint64, error) {
	b, err := d.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u16("string length")
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n), "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// length reads a signed array/list length and checks it against the bytes
// left, so a corrupt length fails fast instead of allocating.
func (d *decoder) length(elemSize int, what string) (int, error) {
	start := d.off
	v, err := d.u32(what + " length")
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, d.fail(start, fmt.Sprintf("negative %s length %d", what, n), nil)
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(len(d.buf)-d.off) {
		return 0, d.fail(d.off, "reading "+what, io.ErrUnexpectedEOF)
	}
	return int(n), nil
}

func (d *decoder) compound(depth int) (Compound, error) {
	if depth > MaxDepth {
		return nil, d.fail(d.off, "nesting too deep", nil)
	}
	var c Compound
	for {
		off := d.off
		typ, err := d.u8("tag type")
		if err != nil {
			return nil, err
		}
		t := TagType(typ)
		if t == TagEnd {
			return c, nil
		}
		if !t.Valid() {
			return nil, d.fail(off, fmt.Sprintf("unknown tag type %d", typ), nil)
		}
		name, err := d.str()
		if err != nil {
			return nil, err
		}
		v, err := d.payload(t, depth)
		if err != nil {
			return nil, err
		}
		c = append(c, Field{Name: name, Value: v})
	}
}

func (d *decoder) payload(t TagType, depth int) (Tag, error) {
	switch t {
	case TagByte:
		v, err := d.u8("byte")
		return Byte(int8(v)), err
	case TagShort:
		v, err := d.u16("short")
		return Short(int16(v)), err
	case TagInt:
		v, err := d.u32("int")
		return Int(int32(v)), err
	case TagLong:
		v, err := d.u64("long")
		return Long(int64(v)), err
	case TagFloat:
		v, err := d.u32("float")
		return Float(math.Float32frombits(v)), err
	case TagDouble:
		v, err := d.u64("double")
		return Double(math.Float64frombits(v)), err
	case TagByteArray:
		n, err := d.length(1, "byte array")
		if err != nil {
			return nil, err
		}
		b, err := d.take(n, "byte array")
		if err != nil {
			return nil, err
		}
		out := make(ByteArray, n)
		copy(out, b)
		return out, nil
	case TagString:
		s, err := d.str()
		return String(s), err
	case TagList:
		return d.list(depth + 1)
	case TagCompound:
		return d.compound(depth + 1)
	case TagIntArray:
		n, err := d.length(4, "int array")
		if err != nil {
			return nil, err
		}
		b, err := d.take(n*4, "int array")
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			out[i] = int32(binary.BigEndian.Uint32(b[i*4:]))
		}
		return out, nil
	case TagLongArray:
		n, err := d.length(8, "long array")
		if err != nil {
			return nil, err
		}
		b, err := d.take(n*8, "long array")
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint64(b[i*8:]))
		}
		return out, nil
	}
	return nil, d.fail(d.off, fmt.Sprintf("unexpected tag type %s", t), nil)
}

func (d *decoder) list(depth int) (Tag, error) {
	if depth > MaxDepth {
		return nil, d.fail(d.off, "nesting too deep", nil)
	}
	off := d.off
	typ, err := d.u8("list element type")
	if err != nil {
		return nil, err
	}
	elem := TagType(typ)
	if !elem.Valid() {
		return nil, d.fail(off, fmt.Sprintf("unknown list element type %d", typ), nil)
	}
	n, err := d.length(minSize(elem), "list")
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, d.fail(off, "non-empty list of End tags", nil)
	}
	l := List{Elem: elem, Items: make([]Tag, 0, n)}
	for range n {
		v, err := d.payload(elem, depth)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, v)
	}
	return l, nil
}

// minSize is the smallest encoded payload of a tag type.
func minSize(t TagType) int {
	switch t {
	case TagByte, TagCompound:
		return 1
	case TagShort, TagString:
		return 2
	case TagInt, TagFloat, TagByteArray, TagIntArray, TagLongArray:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagList:
		return 5
	}
	return 0
}
