package booking

import (
	"errors"
	"fmt"
)

// InvalidRequestError is returned for a commit request that cannot be evaluated at all.
type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid booking request: %s %s", e.Field, e.Message)
}

func newInvalidRequest(field, msg string) error {
	return &InvalidRequestError{Field: field, Message: msg}
}

// IsInvalidRequest reports whether err is an InvalidRequestError.
func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}
