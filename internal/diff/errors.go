package diff

import (
	"errors"
	"fmt"
)

// FieldError reports a field that could not be compared
type FieldError struct {
	Entity string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ComparisonError collects every failure of a comparison. A comparison that fails
// yields no diff at all.
type ComparisonError struct {
	Errs []error
}

func (e *ComparisonError) Error() string {
	return "schema comparison failed: " + errors.Join(e.Errs...).Error()
}

func (e *ComparisonError) Unwrap() []error {
	return e.Errs
}

// newComparisonError returns nil when errs is empty
func newComparisonError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ComparisonError{Errs: errs}
}
