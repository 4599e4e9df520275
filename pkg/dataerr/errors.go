// Package dataerr defines the error kinds reported by the value conversion
// and codec layers.
//
// Every failure is marked with exactly one of the sentinel kinds below, so
// callers test for a kind with errors.Is and recover the offending text and
// type with errors.As on *ValueError.
package dataerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds
var (
	ErrInvalidFormat      = errors.New("invalid format")
	ErrOutOfRange         = errors.New("value out of range")
	ErrNotAllowed         = errors.New("undefined value not allowed")
	ErrNotResolvable      = errors.New("reference not resolvable")
	ErrUnsupportedVersion = errors.New("unsupported codec version")
	ErrCorruptEncoding    = errors.New("corrupt encoding")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrSizeMismatch       = errors.New("encoded size would change")
	ErrInvalidSchema      = errors.New("invalid schema")
	ErrTypeMismatch       = errors.New("attribute type mismatch")
	ErrUnknownItem        = errors.New("unknown item")
)

// ValueError reports a text or value that is not acceptable for an
// attribute type.
type ValueError struct {
	Kind  error  // one of the sentinel kinds
	Type  string // PID of the attribute type
	Text  string // offending input
	cause error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %q for type %s", e.cause.Error(), e.Text, e.Type)
}

// Unwrap returns the marked cause.
func (e *ValueError) Unwrap() error {
	return e.cause
}

// Is reports whether target is the kind of this error.
func (e *ValueError) Is(target error) bool {
	return target == e.Kind
}

func newValueError(kind error, typ, text, format string, args ...interface{}) error {
	cause := kind
	if format != "" {
		cause = errors.Mark(errors.Newf(format, args...), kind)
	}
	return &ValueError{Kind: kind, Type: typ, Text: text, cause: cause}
}

// InvalidFormat reports text that matches no accepted grammar for typ.
func InvalidFormat(typ, text, format string, args ...interface{}) error {
	return newValueError(ErrInvalidFormat, typ, text, format, args...)
}

// OutOfRange reports a parsed value that violates a declared bound of typ.
func OutOfRange(typ, text, format string, args ...interface{}) error {
	return newValueError(ErrOutOfRange, typ, text, format, args...)
}

// NotAllowed reports an undefined reference where typ forbids one.
func NotAllowed(typ, text string) error {
	return newValueError(ErrNotAllowed, typ, text, "")
}

// NotResolvable reports reference text that matches no object.
func NotResolvable(typ, text string) error {
	return newValueError(ErrNotResolvable, typ, text, "")
}

// Corrupt reports buffer content that is inconsistent with the schema at
// node and offset.
func Corrupt(node string, offset int, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	err = errors.Wrapf(err, "%s at offset %d", node, offset)
	return errors.Mark(err, ErrCorruptEncoding)
}

// IndexOutOfRange reports a list index outside [0, count).
func IndexOutOfRange(node string, index, count int) error {
	return errors.Mark(
		errors.Newf("%s: index %d outside [0, %d)", node, index, count),
		ErrIndexOutOfRange)
}

// SizeMismatch reports an in-place write that would change the encoded
// size of node.
func SizeMismatch(node string, have, want int) error {
	return errors.Mark(
		errors.Newf("%s: encoded size %d cannot change to %d in place", node, have, want),
		ErrSizeMismatch)
}

// InvalidSchema reports a schema the compiler cannot lay out.
func InvalidSchema(node string, format string, args ...interface{}) error {
	err := errors.Wrapf(errors.Newf(format, args...), "%s", node)
	return errors.Mark(err, ErrInvalidSchema)
}

// TypeMismatch reports an accessor used on a node of a different kind.
func TypeMismatch(node, want string) error {
	return errors.Mark(errors.Newf("%s is not %s", node, want), ErrTypeMismatch)
}

// UnknownItem reports a lookup of a member name a composite does not have.
func UnknownItem(node, name string) error {
	return errors.Mark(errors.Newf("%s has no item %q", node, name), ErrUnknownItem)
}

// UnsupportedVersion reports a codec version without an implementation.
func UnsupportedVersion(version int) error {
	return errors.Mark(errors.Newf("codec version %d", version), ErrUnsupportedVersion)
}

// IsValueError reports whether err is a conversion failure caused by user
// input rather than by a corrupt buffer or a broken schema.
func IsValueError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrNotAllowed) ||
		errors.Is(err, ErrNotResolvable)
}
