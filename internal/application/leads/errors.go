package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by UpdateStatus when the id resolves to no row.
	// The original store silently no-opped here; surfacing 404 lets the admin
	// table tell the operator the row went stale.
	ErrNotFound = errors.New("Lead not found")
	// ErrValidation wraps all payload validation failures. Match with errors.Is.
	ErrValidation = errors.New("validation failed")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
