// Package imgerr defines the error kinds reported by the image graph, the
// filter registry and the renderer.
//
// Every failure is an [*Error] that names the operation, the offending value
// and one of the sentinel kinds below, so callers can branch with errors.Is:
//
//	if errors.Is(err, imgerr.ErrUnresolvedExtent) {
//	    // supply an explicit rect
//	}
package imgerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidColorSpace     = errors.New("invalid color space")
	ErrDuplicateFilterName   = errors.New("duplicate filter name")
	ErrUnknownFilter         = errors.New("unknown filter")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrUnsupportedColorSpace = errors.New("unsupported color space")
	ErrUnresolvedExtent      = errors.New("unresolved extent")
	ErrSourceDecode          = errors.New("source decode error")
	ErrRegionTooLarge        = errors.New("region too large")
)

// Error describes a failure together with the value that caused it.
type Error struct {
	// Op is the operation that failed, e.g. "apply" or "render".
	Op string
	// Subject identifies the offending value: a filter name, a parameter
	// key, a colour space name or a node description.
	Subject string
	// Err is one of the sentinel kinds.
	Err error
	// Cause is the underlying error, if any.
	Cause error
}

// New returns an Error of the given kind.
func New(op string, kind error, subject string) *Error {
	return &Error{Op: op, Subject: subject, Err: kind}
}

// Wrap returns an Error of the given kind caused by cause.
func Wrap(op string, kind error, subject string, cause error) *Error {
	return &Error{Op: op, Subject: subject, Err: kind, Cause: cause}
}

// Newf is New with a formatted subject.
func Newf(op string, kind error, format string, args ...any) *Error {
	return New(op, kind, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Kind returns the sentinel kind of err, or nil if err carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidColorSpace,
		ErrDuplicateFilterName,
		ErrUnknownFilter,
		ErrInvalidParameter,
		ErrUnsupportedColorSpace,
		ErrUnresolvedExtent,
		ErrSourceDecode,
		ErrRegionTooLarge,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
