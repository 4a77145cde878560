package service

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that the requested entity does not exist. Handlers map
// it to a 404 response.
var ErrNotFound = errors.New("not found")

// ValidationError is a request the caller can fix. Handlers map it to a 400
// response with the message intact.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
