// Package service provides the business logic of the booking server,
// delegating persistence to repository interfaces.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("not authorized")
	ErrUserExists         = errors.New("user already exists")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPaymentFailed      = errors.New("payment failed")
)

// InputError is a request the service refuses to act on.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// kindError wraps one of the sentinels above with a user-facing message.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func conflict(msg string) error { return &kindError{kind: ErrConflict, msg: msg} }

func notFound(msg string) error { return &kindError{kind: ErrNotFound, msg: msg} }
