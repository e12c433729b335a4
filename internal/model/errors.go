package model

import "fmt"

// ValidationError reports a structural circuit/proposal invariant
// violation (§3 invariants).
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string { return e.message }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}
