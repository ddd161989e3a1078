// Package nbt implements the big-endian Named Binary Tag format used by
// block-structure files.
//
// Tags are plain Go values ([Byte], [Int], [String], [List], [Compound]...)
// that implement [Tag]. A [Compound] keeps its fields in insertion order, so
// encoding the same tree always yields the same bytes.
//
// # Reading and writing
//
//	name, root, err := nbt.Decode(data)
//	if err != nil {
//	    return err
//	}
//	version, err := nbt.Get[nbt.Int](root, "Version")
//
//	var c nbt.Compound
//	c.Set("Version", nbt.Int(2))
//	out, err := nbt.Encode("Schematic", c)
package nbt

import (
	"fmt"
	"math"
	"slices"
)

// TagType identifies the kind of a tag on the wire.
type TagType byte

// Tag type identifiers.
const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	TagEnd:       "End",
	TagByte:      "Byte",
	TagShort:     "Short",
	TagInt:       "Int",
	TagLong:      "Long",
	TagFloat:     "Float",
	TagDouble:    "Double",
	TagByteArray: "ByteArray",
	TagString:    "String",
	TagList:      "List",
	TagCompound:  "Compound",
	TagIntArray:  "IntArray",
	TagLongArray: "LongArray",
}

func (t TagType) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("TagType(%d)", byte(t))
}

// Valid reports whether t is a known tag type.
func (t TagType) Valid() bool { return t <= TagLongArray }

// Tag is any NBT value.
type Tag interface {
	Type() TagType
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []byte
	String    string
	IntArray  []int32
	LongArray []int64
)

// List is a homogeneous sequence of tags. Elem is the element type; it is
// TagEnd only for empty lists whose element type is unknown.
type List struct {
	Elem  TagType
	Items []Tag
}

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (ByteArray) Type() TagType { return TagByteArray }
func (String) Type() TagType    { return TagString }
func (List) Type() TagType      { return TagList }
func (Compound) Type() TagType  { return TagCompound }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }

// NewList builds a list, inferring the element type from the first item.
// It panics if items are of mixed types.
func NewList(items ...Tag) List {
	l := List{Items: items}
	for i, it := range items {
		if i == 0 {
			l.Elem = it.Type()
			continue
		}
		if it.Type() != l.Elem {
			panic(fmt.Sprintf("nbt: mixed list element types %s and %s", l.Elem, it.Type()))
		}
	}
	return l
}

// Len returns the number of items in the list.
func (l List) Len() int { return len(l.Items) }

// Equal reports whether a and b are the same tag tree.
// Floating point values compare by bit pattern so NaN payloads round-trip.
func Equal(a, b Tag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case Float:
		return math.Float32bits(float32(av)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Double)))
	case ByteArray:
		bv := b.(ByteArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case IntArray:
		bv := b.(IntArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case LongArray:
		bv := b.(LongArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case List:
		bv := b.(List)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		if len(av.Items) > 0 && av.Elem != bv.Elem {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Compound:
		return av.Equal(b.(Compound))
	default:
		return a == b
	}
}

// Clone returns a deep copy of t. Lists, compounds and arrays get fresh
// backing storage; scalar values are returned as is.
func Clone(t Tag) Tag {
	switch v := t.(type) {
	case ByteArray:
		return slices.Clone(v)
	case IntArray:
		return slices.Clone(v)
	case LongArray:
		return slices.Clone(v)
	case List:
		items := make([]Tag, len(v.Items))
		for i, it := range v.Items {
			items[i] = Clone(it)
		}
		return List{Elem: v.Elem, Items: items}
	case Compound:
		return v.Clone()
	default:
		return t
	}
}
