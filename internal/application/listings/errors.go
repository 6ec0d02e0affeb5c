package listings

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by UpdateListing when the id resolves to no row.
	ErrNotFound = errors.New("Listing not found")
	// ErrValidation wraps all payload validation failures. Match with errors.Is.
	ErrValidation = errors.New("validation failed")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
