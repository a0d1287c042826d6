package service

import "errors"

// ErrNotFound is returned when an identifier has no matching record.
// Handlers translate it to a 404.
var ErrNotFound = errors.New("not found")

// ValidationError marks a request rejected before touching the store.
// Handlers translate it to a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
