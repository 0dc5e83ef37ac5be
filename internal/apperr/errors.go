// Package apperr defines the error taxonomy shared by the service and
// HTTP layers. Handlers map these to status codes; nothing else should
// inspect error strings.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a mutate target that is absent or not owned by
	// the caller.
	ErrNotFound = errors.New("not found")
	// ErrAuth marks a missing, invalid or expired credential.
	ErrAuth = errors.New("unauthorized")
	// ErrPersistence marks a failed store operation.
	ErrPersistence = errors.New("persistence failure")
	// ErrDelivery marks a failed channel push. Always non-fatal: callers
	// log it and move on, they never roll back a store write over it.
	ErrDelivery = errors.New("delivery failure")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Persistence(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
