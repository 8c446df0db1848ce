package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies remote generation failures.
type ErrorKind string

const (
	KindNotConfigured   ErrorKind = "not_configured"
	KindUnreachable     ErrorKind = "unreachable"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// Sentinel errors for errors.Is matching against *Error.
var (
	ErrNotConfigured   = errors.New("remote generator not configured")
	ErrUnreachable     = errors.New("remote generator unreachable")
	ErrInvalidResponse = errors.New("remote generator returned an invalid response")
)

// Error is returned by every failing Client call.
type Error struct {
	Kind   ErrorKind
	Op     string // "text" or "image"
	Status int    // HTTP status when one was received
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("remote %s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotConfigured:
		return e.Kind == KindNotConfigured
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrInvalidResponse:
		return e.Kind == KindInvalidResponse
	}
	return false
}

// KindOf returns the kind of a remote error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
