package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a response.
type Kind int

const (
	// KindInternal is an inference failure; retrying the same input is safe.
	KindInternal Kind = iota
	// KindInvalidInput means the caller supplied something unusable.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	default:
		return "internal"
	}
}

// Error is returned by every engine operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(op string, err error) error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: err}
}

func internal(op string, err error) error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

