package nbt

import (
	"errors"
	"fmt"
)

// Field is a named tag inside a compound.
type Field struct {
	Name  string
	Value Tag
}

// Compound is an ordered set of named tags. Field order is preserved on
// decode and reproduced on encode.
type Compound []Field

// ErrMissing is returned by [Get] when a compound has no field of that name.
var ErrMissing = errors.New("missing tag")

// FieldError describes a missing or mistyped compound field.
type FieldError struct {
	Name string
	Want TagType
	Got  TagType // TagEnd when the field is absent
	Err  error
}

func (e *FieldError) Error() string {
	if e.Got == TagEnd {
		return fmt.Sprintf("tag %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("tag %q: want %s, got %s", e.Name, e.Want, e.Got)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ErrWrongType is wrapped by [FieldError] when a field has an unexpected type.
var ErrWrongType = errors.New("wrong tag type")

// Get returns the field's value.
func (c Compound) Get(name string) (Tag, bool) {
	for _, f := range c {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether the compound contains name.
func (c Compound) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Set replaces the named field, or appends it when absent.
func (c *Compound) Set(name string, v Tag) {
	for i := range *c {
		if (*c)[i].Name == name {
			(*c)[i].Value = v
			return
		}
	}
	*c = append(*c, Field{Name: name, Value: v})
}

// Delete removes the named field if present.
func (c *Compound) Delete(name string) {
	for i := range *c {
		if (*c)[i].Name == name {
			*c = append((*c)[:i], (*c)[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of c. A nil compound stays nil.
func (c Compound) Clone() Compound {
	if c == nil {
		return nil
	}
	out := make(Compound, len(c))
	for i, f := range c {
		out[i] = Field{Name: f.Name, Value: Clone(f.Value)}
	}
	return out
}

// Keys returns field names in order.
func (c Compound) Keys() []string {
	keys := make([]string, len(c))
	for i, f := range c {
		keys[i] = f.Name
	}
	return keys
}

// Without returns a copy of c minus the named fields.
func (c Compound) Without(names ...string) Compound {
	out := make(Compound, 0, len(c))
outer:
	for _, f := range c {
		for _, n := range names {
			if f.Name == n {
				continue outer
			}
		}
		out = append(out, f)
	}
	return out
}

// Equal compares two compounds by field name, ignoring field order.
func (c Compound) Equal(o Compound) bool {
	if len(c) != len(o) {
		return false
	}
	for _, f := range c {
		v, ok := o.Get(f.Name)
		if !ok || !Equal(f.Value, v) {
			return false
		}
	}
	return true
}

// Get returns the named field as T.
// The error is a *FieldError wrapping ErrMissing or ErrWrongType.
func Get[T Tag](c Compound, name string) (T, error) {
	var zero T
	v, ok := c.Get(name)
	if !ok {
		return zero, &FieldError{Name: name, Want: zero.Type(), Err: ErrMissing}
	}
	t, ok := v.(T)
	if !ok {
		return zero, &FieldError{Name: name, Want: zero.Type(), Got: v.Type(), Err: ErrWrongType}
	}
	return t, nil
}

// Lookup returns the named field as T, or def when absent or mistyped.
func Lookup[T Tag](c Compound, name string, def T) T {
	if v, err := Get[T](c, name); err == nil {
		return v
	}
	return def
}
