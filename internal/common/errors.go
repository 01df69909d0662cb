// Package common defines shared constants and sentinel errors used across
// the authkeeper server and client. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrorUnavailable marks infrastructure faults (store or cache unreachable).
	// It must never be reported to clients as an authentication failure.
	ErrorUnavailable = errors.New("service unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrCSRFTokenMismatch   = errors.New("csrf token mismatch")
)

// ValidationError carries every policy rule violated by an input.
type ValidationError struct {
	Violations []string
}

// NewValidationError returns nil when violations is empty.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return ErrorValidation.Error() + ": " + strings.Join(e.Violations, "; ")
}

// Is makes errors.Is(err, ErrorValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
