package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodePersistenceFailed = "persistence_failed"
	ErrCodeInternal          = "internal"
)

var (
	// ErrPersistence means the message store could not assign an ID.
	ErrPersistence = errors.New("message persistence failed")
	// ErrInvariantViolation signals a programming error inside the core.
	ErrInvariantViolation = errors.New("invariant violation")
	ErrBadRequest         = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// AsCoreError maps an error returned by the hub to a wire-friendly CoreError.
func AsCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrBadRequest):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrPersistence):
		return coreError(ErrCodePersistenceFailed, "message could not be stored")
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
