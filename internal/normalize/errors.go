package normalize

import "fmt"

// ValidationError rejects one raw record with enough context to reproduce:
// the offending field and the reason it failed coercion or validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record field %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AsValidationError reports whether err is a record-level validation failure.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	ve, ok := err.(*ValidationError)
	return ve, ok
}
