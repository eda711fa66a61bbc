package evented

import (
	"errors"
	"fmt"
)

// ValidationError reports the first field (or schema check) that rejected an update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// schemaError signals a malformed schema definition.
type schemaError struct{ msg string }

func (e schemaError) Error() string { return "evented: " + e.msg }
