package engine

import (
	"errors"
	"fmt"
	"io"

	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/nbt"
)

// ErrNotLoaded is returned by operations that need a model while the
// engine is Empty.
var ErrNotLoaded = errs.New(errs.ErrCodeNotLoaded, "no schematic loaded")

// DecodeError reports input bytes that could not be loaded. Reason is a
// short structural description; Err carries the underlying cause.
type DecodeError struct {
	Format formats.Format
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s: %v", e.Format, e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorCode implements errors.Coder.
func (e *DecodeError) ErrorCode() errs.Code { return errs.ErrCodeDecode }

// EncodeError reports a model that cannot be written in Format.
type EncodeError struct {
	Format formats.Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ErrorCode implements errors.Coder.
func (e *EncodeError) ErrorCode() errs.Code { return errs.ErrCodeEncode }

// InternalError is a panic recovered inside an engine operation.
type InternalError struct {
	Op    string
	Value any
	Stack []byte
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Op, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *InternalError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ErrorCode implements errors.Coder.
func (e *InternalError) ErrorCode() errs.Code { return errs.ErrCodeInternal }

// Ensure the typed errors carry codes.
var (
	_ errs.Coder = (*DecodeError)(nil)
	_ errs.Coder = (*EncodeError)(nil)
	_ errs.Coder = (*InternalError)(nil)
)

func newDecodeError(f formats.Format, err error) *DecodeError {
	return &DecodeError{Format: f, Reason: decodeReason(err), Err: err}
}

func decodeReason(err error) string {
	var syn *nbt.SyntaxError
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated input"
	case errors.Is(err, formats.ErrNotCompressed):
		return "bad header"
	case errors.Is(err, formats.ErrTooLarge):
		return "input too large"
	case errors.Is(err, formats.ErrUnsupportedVersion):
		return "unsupported version"
	case errors.Is(err, formats.ErrUnrecognized):
		return "unrecognized format"
	case errors.As(err, &syn):
		return "malformed NBT"
	}
	return "malformed structure"
}
