package api

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeTransport      ErrorType = "transport_error"
	ErrorTypeModelError     ErrorType = "model_error"
)

// ErrNothingToReply is returned when a stream is requested but the
// conversation holds no pending user content.
var ErrNothingToReply = errors.New("nothing to reply to")

// APIError represents a structured error with type, code, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an APIError for local failures (marshalling,
// request construction, connection errors).
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewTransportError creates an APIError for a non-success HTTP status. The
// status code is kept in Code.
func NewTransportError(status int, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTransport,
		Code:    fmt.Sprintf("%d", status),
		Message: message,
	}
}

// NewModelError creates an APIError for failures reported by the vendor
// model session.
func NewModelError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeModelError,
		Message: message,
	}
}
