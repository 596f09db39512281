// Package errors defines the JSON error envelope returned to clients.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError is an error that can be written to a client as JSON.
type HTTPError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *HTTPError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// WithDetails returns a copy carrying a human-readable detail string.
func (e *HTTPError) WithDetails(details string) *HTTPError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithRequestID returns a copy carrying the request ID.
func (e *HTTPError) WithRequestID(id string) *HTTPError {
	clone := *e
	clone.RequestID = id
	return &clone
}

// WriteJSON writes the error as JSON to the response.
func (e *HTTPError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}

// Common errors
var (
	ErrBadRequest = &HTTPError{
		Code:    http.StatusBadRequest,
		Message: "Bad Request",
	}

	ErrUnauthorized = &HTTPError{
		Code:    http.StatusUnauthorized,
		Message: "Unauthorized",
	}

	ErrNotFound = &HTTPError{
		Code:    http.StatusNotFound,
		Message: "Not Found",
	}

	ErrConflict = &HTTPError{
		Code:    http.StatusConflict,
		Message: "Conflict",
	}

	ErrInternalServer = &HTTPError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
	}

	ErrBadGateway = &HTTPError{
		Code:    http.StatusBadGateway,
		Message: "Bad Gateway",
	}
)
