package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateRoom = errors.New("room already exists")
	ErrUnknownRoom   = errors.New("unknown room")
	ErrUserName      = errors.New("username is required")
	ErrUserExists    = errors.New("username already taken")
	ErrCredentials   = errors.New("invalid credentials")
)

// ValidationError reports a user-correctable problem with a single field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
