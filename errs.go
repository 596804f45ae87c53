package flac

import "github.com/go-flac/flac/internal/xerr"

// Kind classifies the failure mode of an Error, letting callers branch
// without string-matching error messages.
type Kind = xerr.Kind

// Error is the typed error returned throughout this package and its
// subpackages; use errors.As to recover the Kind.
type Error = xerr.Error

// Failure kinds a caller may check for with Is.
const (
	UnexpectedEOF   = xerr.UnexpectedEOF
	BadMagic        = xerr.BadMagic
	BadSync         = xerr.BadSync
	ReservedValue   = xerr.ReservedValue
	InvalidArgument = xerr.InvalidArgument
	CrcMismatch     = xerr.CrcMismatch
	DataFormat      = xerr.DataFormat
	Overflow        = xerr.Overflow
	IoFailure       = xerr.IoFailure
)

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool { return xerr.Is(err, kind) }

// New constructs a typed Error of the given Kind from a format string.
func New(kind Kind, format string, args ...interface{}) error { return xerr.New(kind, format, args...) }

// Wrap annotates err with a Kind, attaching a stack trace at this frame.
func Wrap(kind Kind, err error) error { return xerr.Wrap(kind, err) }

// Status summarises the outcome of a single stream-level integrity check.
type Status int

// MD5 (and, in future, other whole-stream) verification outcomes.
const (
	// StatusSkipped means no check ran: the stored hash was all-zero, or
	// the stream was repositioned with Seek.
	StatusSkipped Status = iota
	// StatusOK means the check ran and matched.
	StatusOK
	// StatusMismatch means the check ran and the computed value differed
	// from the one stored in the stream.
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusOK:
		return "ok"
	case StatusMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}
