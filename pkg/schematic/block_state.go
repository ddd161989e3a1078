package schematic

import (
	"fmt"
	"slices"
	"strings"
)

// AirName is the block that fills unset positions. Palette index 0 is always air.
const AirName = "minecraft:air"

// Property is a single block state property such as facing=north.
type Property struct {
	Key   string
	Value string
}

// BlockState is a block name plus its properties. Properties are kept
// sorted by key so two equal states always print and encode identically.
type BlockState struct {
	Name       string
	Properties []Property
}

// Air returns the air block state.
func Air() BlockState { return BlockState{Name: AirName} }

// NewBlockState creates a block state with the given properties.
func NewBlockState(name string, props ...Property) BlockState {
	b := BlockState{Name: name}
	for _, p := range props {
		b = b.With(p.Key, p.Value)
	}
	return b
}

// With returns a copy of b with key set to value.
func (b BlockState) With(key, value string) BlockState {
	props := slices.Clone(b.Properties)
	i, found := slices.BinarySearchFunc(props, key, func(p Property, k string) int {
		return strings.Compare(p.Key, k)
	})
	if found {
		props[i].Value = value
	} else {
		props = slices.Insert(props, i, Property{Key: key, Value: value})
	}
	return BlockState{Name: b.Name, Properties: props}
}

// Property returns the value of key.
func (b BlockState) Property(key string) (string, bool) {
	for _, p := range b.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsAir reports whether b is plain air.
func (b BlockState) IsAir() bool {
	return b.Name == AirName && len(b.Properties) == 0
}

// Equal compares name and properties.
func (b BlockState) Equal(o BlockState) bool {
	return b.Name == o.Name && slices.Equal(b.Properties, o.Properties)
}

// String renders the state as name[k=v,...], the palette key form used by
// Sponge schematics.
func (b BlockState) String() string {
	if len(b.Properties) == 0 {
		return b.Name
	}
	var sb strings.Builder
	sb.WriteString(b.Name)
	sb.WriteByte('[')
	for i, p := range b.Properties {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseBlockState parses the name[k=v,...] form produced by String.
func ParseBlockState(s string) (BlockState, error) {
	s = strings.TrimSpace(s)
	name, rest, hasProps := strings.Cut(s, "[")
	name = strings.TrimSpace(name)
	if name == "" {
		return BlockState{}, fmt.Errorf("block state %q: empty name", s)
	}
	b := BlockState{Name: name}
	if !hasProps {
		return b, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return BlockState{}, fmt.Errorf("block state %q: missing closing bracket", s)
	}
	rest = strings.TrimSuffix(rest, "]")
	if strings.TrimSpace(rest) == "" {
		return b, nil
	}
	for _, part := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return BlockState{}, fmt.Errorf("block state %q: malformed property %q", s, part)
		}
		b = b.With(k, strings.TrimSpace(v))
	}
	return b, nil
}
