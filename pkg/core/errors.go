package core

import (
	"fmt"
)

// Error is the error surfaced by the orchestration core.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Code       string    `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status: %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrInvalidRequest means the caller built an unusable request.
	ErrInvalidRequest ErrorType = "invalid_request_error"
	// ErrAuthentication means no usable credential was supplied.
	ErrAuthentication ErrorType = "authentication_error"
	// ErrStream means the model call failed or was rejected mid-stream.
	ErrStream ErrorType = "stream_error"
	// ErrDispatch means a function call could not be resolved or executed.
	ErrDispatch ErrorType = "dispatch_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewStreamError creates a stream error with an optional HTTP status code.
func NewStreamError(message string, statusCode int) *Error {
	return &Error{Type: ErrStream, Message: message, StatusCode: statusCode}
}

// NewDispatchError creates a dispatch error.
func NewDispatchError(message string) *Error {
	return &Error{Type: ErrDispatch, Message: message}
}
