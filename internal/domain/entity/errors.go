package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by the typed not-found errors of the use cases.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate indicates a unique key (article URL, interest name) is already taken
	ErrDuplicate = errors.New("entity already exists")
)

// ValidationError rejects one field of caller input. HTTP handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
