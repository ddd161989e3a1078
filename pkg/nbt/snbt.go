package nbt

import (
	"strconv"
	"strings"
)

// Stringify renders a tag in the stringified NBT notation used by game
// commands, e.g. {id:"minecraft:chest",Items:[{Slot:0b,Count:1b}]}.
func Stringify(t Tag) string {
	var b strings.Builder
	writeSNBT(&b, t)
	return b.String()
}

func writeSNBT(b *strings.Builder, t Tag) {
	switch v := t.(type) {
	case Byte:
		b.WriteString(strconv.Itoa(int(v)))
		b.WriteByte('b')
	case Short:
		b.WriteString(strconv.Itoa(int(v)))
		b.WriteByte('s')
	case Int:
		b.WriteString(strconv.Itoa(int(v)))
	case Long:
		b.WriteString(strconv.FormatInt(int64(v), 10))
		b.WriteByte('L')
	case Float:
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		b.WriteByte('f')
	case Double:
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
		b.WriteByte('d')
	case String:
		b.WriteString(strconv.Quote(string(v)))
	case ByteArray:
		b.WriteString("[B;")
		for i, x := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(int8(x))))
			b.WriteByte('B')
		}
		b.WriteByte(']')
	case IntArray:
		b.WriteString("[I;")
		for i, x := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(x)))
		}
		b.WriteByte(']')
	case LongArray:
		b.WriteString("[L;")
		for i, x := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(x, 10))
			b.WriteByte('L')
		}
		b.WriteByte(']')
	case List:
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeSNBT(b, it)
		}
		b.WriteByte(']')
	case Compound:
		b.WriteByte('{')
		for i, f := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(snbtKey(f.Name))
			b.WriteByte(':')
			writeSNBT(b, f.Value)
		}
		b.WriteByte('}')
	}
}

func snbtKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !(r == '_' || r == '-' || r == '.' || r == '+' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return strconv.Quote(k)
		}
	}
	return k
}

// ToValue converts a tag into plain Go values (map[string]any, []any,
// numbers, strings) for JSON or YAML output. Array tags become []int64 or
// []int32 slices.
func ToValue(t Tag) any {
	switch v := t.(type) {
	case Byte:
		return int8(v)
	case Short:
		return int16(v)
	case Int:
		return int32(v)
	case Long:
		return int64(v)
	case Float:
		return float32(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case ByteArray:
		out := make([]int8, len(v))
		for i, x := range v {
			out[i] = int8(x)
		}
		return out
	case IntArray:
		return []int32(v)
	case LongArray:
		return []int64(v)
	case List:
		out := make([]any, len(v.Items))
		for i, it := range v.Items {
			out[i] = ToValue(it)
		}
		return out
	case Compound:
		out := make(map[string]any, len(v))
		for _, f := range v {
			out[f.Name] = ToValue(f.Value)
		}
		return out
	}
	return nil
}
