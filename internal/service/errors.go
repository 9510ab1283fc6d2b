package service

import (
	"errors"

	"studypath/internal/database"
)

var (
	// ErrNotFound means the referenced topic, review or plan item does not
	// exist or does not belong to the learner
	ErrNotFound = errors.New("not found")

	// ErrForbidden means an ownership or role check failed
	ErrForbidden = errors.New("forbidden")
)

// ValidationError marks malformed caller input. The operation it aborts
// has no side effects.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a validation error with the given message
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// retryRead runs an idempotent read, retrying once when the storage layer
// reports a transient failure (lock contention, deadlock)
func retryRead[T any](fn func() (T, error)) (T, error) {
	result, err := fn()
	if err != nil && database.IsTransient(err) {
		return fn()
	}
	return result, err
}
