package service

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email
// and for a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }
