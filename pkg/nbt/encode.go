package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encode serializes a named root compound.
func Encode(name string, root Compound) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, name, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes a named root compound to w.
func Write(w io.Writer, name string, root Compound) error {
	e := &encoder{}
	e.u8(byte(TagCompound))
	if err := e.str(name); err != nil {
		return err
	}
	if err := e.compound(root, 1); err != nil {
		return err
	}
	_, err := w.Write(e.buf)
	return err
}

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v byte) { e.buf = append(e.buf, v) }

func (e *encoder) u16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }

func (e *encoder) u32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

func (e *encoder) u64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }

func (e *encoder) str(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("nbt: string of %d bytes exceeds %d", len(s), math.MaxUint16)
	}
	e.u16(uint16(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

func (e *encoder) length(n int, what string) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("nbt: %s of %d elements exceeds %d", what, n, math.MaxInt32)
	}
	e.u32(uint32(n))
	return nil
}

func (e *encoder) compound(c Compound, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("nbt: nesting deeper than %d", MaxDepth)
	}
	for _, f := range c {
		if f.Value == nil {
			return fmt.Errorf("nbt: field %q has no value", f.Name)
		}
		e.u8(byte(f.Value.Type()))
		if err := e.str(f.Name); err != nil {
			return err
		}
		if err := e.payload(f.Value, depth); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	e.u8(byte(TagEnd))
	return nil
}

func (e *encoder) payload(t Tag, depth int) error {
	switch v := t.(type) {
	case Byte:
		e.u8(byte(v))
	case Short:
		e.u16(uint16(v))
	case Int:
		e.u32(uint32(v))
	case Long:
		e.u64(uint64(v))
	case Float:
		e.u32(math.Float32bits(float32(v)))
	case Double:
		e.u64(math.Float64bits(float64(v)))
	case ByteArray:
		if err := e.length(len(v), "byte array"); err != nil {
			return err
		}
		e.buf = append(e.buf, v...)
	case String:
		return e.str(string(v))
	case List:
		return e.list(v, depth+1)
	case Compound:
		return e.compound(v, depth+1)
	case IntArray:
		if err := e.length(len(v), "int array"); err != nil {
			return err
		}
		for _, x := range v {
			e.u32(uint32(x))
		}
	case LongArray:
		if err := e.length(len(v), "long array"); err != nil {
			return err
		}
		for _, x := range v {
			e.u64(uint64(x))
		}
	default:
		return fmt.Errorf("nbt: unsupported tag %T", t)
	}
	return nil
}

func (e *encoder) list(l List, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("nbt: nesting deeper than %d", MaxDepth)
	}
	elem := l.Elem
	if len(l.Items) == 0 {
		e.u8(byte(elem))
		return e.length(0, "list")
	}
	if elem == TagEnd {
		elem = l.Items[0].Type()
	}
	e.u8(byte(elem))
	if err := e.length(len(l.Items), "list"); err != nil {
		return err
	}
	for i, it := range l.Items {
		if it == nil || it.Type() != elem {
			return fmt.Errorf("nbt: list item %d is not %s", i, elem)
		}
		if err := e.payload(it, depth); err != nil {
			return err
		}
	}
	return nil
}
