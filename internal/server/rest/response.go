package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const (
	msgNotAuthenticated    = "Not authenticated"
	msgInvalidCredentials  = "Invalid username or password"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgCSRF                = "CSRF token missing or invalid"
	msgForbidden           = "Not enough permissions"
	msgUserNotFound        = "User not found"
	msgUsernameTaken       = "Username is already registered"
	msgEmailTaken          = "Email is already registered"
	msgConflict            = "Username or email is already registered"
	msgValidation          = "Validation failed"
	msgBadRequest          = "Malformed request body"
	msgTooManyRequests     = "Too many requests"
	msgNotFound            = "Not found"
	msgMethodNotAllowed    = "Method not allowed"
	msgUnavailable         = "Service temporarily unavailable"
	msgInternal            = "Internal server error"
)

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeMessage(w, http.StatusUnauthorized, msg)
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported without detail.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgValidation, Errors: verr.Violations})
	case errors.Is(err, common.ErrRefreshTokenInvalid):
		writeUnauthorized(w, msgInvalidRefreshToken)
	case errors.Is(err, common.ErrorUnauthorized):
		writeUnauthorized(w, msgInvalidCredentials)
	case errors.Is(err, common.ErrInvalidToken):
		writeUnauthorized(w, msgNotAuthenticated)
	case errors.Is(err, common.ErrCSRFTokenMismatch):
		writeMessage(w, http.StatusForbidden, msgCSRF)
	case errors.Is(err, common.ErrorForbidden):
		writeMessage(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, services.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, msgUsernameTaken)
	case errors.Is(err, services.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeMessage(w, http.StatusConflict, msgConflict)
	case errors.Is(err, common.ErrorUnavailable):
		s.logger.Error(r.Context(), "dependency unavailable", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, msgUnavailable)
	default:
		s.logger.Error(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
