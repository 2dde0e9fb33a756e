package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/omarluq/transit-gate/internal/auth"
)

// Error types carried in the error envelope.
const (
	ErrTypeAuthentication = "authentication_error"
	ErrTypePermission     = "permission_error"
	ErrTypeUnavailable    = "unavailable_error"
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeNotFound       = "not_found_error"
	ErrTypeTooLarge       = "request_too_large"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error type and message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Type: "error",
		Error: ErrorDetail{
			Type:    errorType,
			Message: message,
		},
	})
}

// WriteFailure answers an authentication failure: the challenge header when
// the scheme has one, then the status and message the failure carries.
func WriteFailure(w http.ResponseWriter, f *auth.Failure) {
	if c, ok := f.Challenge.Get(); ok {
		w.Header().Set(c.Header, c.Value)
	}
	WriteError(w, f.Status, failureType(f.Status), f.Message)
}

func failureType(status int) string {
	switch status {
	case http.StatusForbidden:
		return ErrTypePermission
	case http.StatusServiceUnavailable:
		return ErrTypeUnavailable
	default:
		return ErrTypeAuthentication
	}
}

// IsBodyTooLargeError reports whether err came from http.MaxBytesReader.
func IsBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
