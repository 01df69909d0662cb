package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
}

// Unwrap maps the status code to a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return ErrValidation
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusServiceUnavailable, e.Status == http.StatusTooManyRequests:
		return ErrUnavailable
	}
	return nil
}
