package domain

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidIdentifier flags a malformed entity id.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrUnauthorized covers missing, invalid or expired credentials. The message
// never distinguishes an unknown user from a wrong password.
var ErrUnauthorized = errors.New("Unauthorized")

// ValidationError reports missing or malformed request input with the exact
// client-facing message.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation constructs a ValidationError.
func Validation(msg string) error { return &ValidationError{Msg: msg} }

// ParseID validates an opaque entity identifier and returns its canonical form.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return id.String(), nil
}
