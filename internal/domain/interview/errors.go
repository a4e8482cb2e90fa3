package interview

import "fmt"

type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid or missing %s", e.Field)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func fieldError(field, value string) error {
	return &ValidationError{Field: field, Value: value}
}
