// Package xerr defines the typed error kinds shared across the codec
// packages. It lives below flac/frame/meta in the import graph so that
// internal/bits and internal/rice can raise typed errors without importing
// the root package.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a codec failure.
type Kind int

// Error kinds, per the error handling design.
const (
	UnexpectedEOF Kind = iota + 1
	BadMagic
	BadSync
	ReservedValue
	InvalidArgument
	CrcMismatch
	DataFormat
	Overflow
	IoFailure
)

var kindNames = [...]string{
	UnexpectedEOF:   "unexpected EOF",
	BadMagic:        "bad magic",
	BadSync:         "bad sync code",
	ReservedValue:   "reserved value",
	InvalidArgument: "invalid argument",
	CrcMismatch:     "CRC mismatch",
	DataFormat:      "data format",
	Overflow:        "overflow",
	IoFailure:       "I/O failure",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a typed codec error: Kind classifies the failure, Err carries the
// underlying cause (with a stack trace attached at the point of origin).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap lets callers use errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// New constructs a typed error of the given kind from a format string.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.WithStack(fmt.Errorf(format, args...))}
}

// Wrap annotates err with a kind, attaching a stack trace at this frame.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.WithStack(err)}
}
