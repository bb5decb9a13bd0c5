package quizchat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch means parsing yielded zero questions; the caller
	// should surface a "quiz unavailable" state and may regenerate.
	ErrEmptyBatch = errors.New("quiz batch has no questions")

	// ErrInvalidTransition means a session operation was called in a
	// state that does not allow it.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrNoTemplate means the requested template tag is not registered.
	ErrNoTemplate = errors.New("unknown quiz template")
)

// GatewayError wraps a failed or unusable generation call. Gateway
// failures are fatal for the request that triggered them; the core never
// retries them on its own.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
