package apperrors

import (
	"fmt"
	"net/http"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation creates a 400 validation error with the given message.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// Duplicate creates a 400 duplicate-value error with the given message.
func Duplicate(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden      = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrTimeout        = New(http.StatusGatewayTimeout, "Upstream request timed out", nil)
)

// External collaborator error types
var (
	ErrIdentityProvider  = New(http.StatusBadGateway, "Identity provider error", nil)
	ErrMessagingProvider = New(http.StatusBadGateway, "Messaging provider error", nil)
)
