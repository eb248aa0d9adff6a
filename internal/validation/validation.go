// Package validation checks user, panel model and estimate input and reports
// problems as per-field errors.
package validation

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries the field errors of a rejected input.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsError returns nil for an empty list, otherwise an *Error holding errs.
func AsError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &Error{Fields: errs}
}
