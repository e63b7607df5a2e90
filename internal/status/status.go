package status

import (
	"errors"
	"fmt"
)

// Code classifies a failure the way the library reports it to callers.
type Code int

const (
	Success Code = iota
	// BadParm covers caller misuse: nil buffers, malformed descriptors,
	// invalid solver ids, unsupported alpha/beta, bad group counts.
	// Never retryable.
	BadParm
	// NotImplemented is reported when no applicable solver exists for a
	// problem. It deliberately does not distinguish "unsupported op",
	// "all implementations disabled in this build" and "fallback found
	// nothing" - the three causes are indistinguishable here.
	NotImplemented
	// GpuOperationsSkipped is the debug compile-only short-circuit.
	GpuOperationsSkipped
	InternalError
)

func (c Code) String() string {
	switch c {
	case Success:
		return "Success"
	case BadParm:
		return "BadParm"
	case NotImplemented:
		return "NotImplemented"
	case GpuOperationsSkipped:
		return "GpuOperationsSkipped"
	case InternalError:
		return "InternalError"
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the library's error type. All failures are synchronous and
// carried through ordinary error returns.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New returns an *Error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Errorf formats a message into an *Error.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the status code from err. A nil error maps to Success,
// an error without an embedded *Error maps to InternalError.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// Is reports whether err carries the given status code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
