// Package apperror defines the domain errors shared by every layer.
//
// Each kind is a sentinel error. Constructors return an *AppError that
// carries the client-facing message and unwraps to its sentinel, so callers
// classify with errors.Is and handlers read the message with errors.As:
//
//	err := apperror.NotFound("student")
//	errors.Is(err, apperror.ErrNotFound) // true
//
// Anything that does not unwrap to one of these sentinels is a storage
// fault and is reported to clients as a generic 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("no token")
	ErrInvalidToken       = errors.New("invalid token")
)

// Client-facing messages. The credential and token messages are
// deliberately generic and must stay identical across their failure causes.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgNoToken            = "Access denied. No token provided."
	MsgInvalidToken       = "Invalid or expired token"
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable, safe to return to clients
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is used for rows that are absent AND for rows owned by someone
// else; the two cases produce the same message.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", capitalize(resource)),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func DuplicateEmail(message string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: message,
		Field:   "email",
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: MsgInvalidCredentials,
	}
}

func NoToken() *AppError {
	return &AppError{
		Err:     ErrNoToken,
		Message: MsgNoToken,
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Message: MsgInvalidToken,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
