package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the system.
type ErrorCode string

// General error codes
const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrUnavailable   ErrorCode = "UNAVAILABLE"
	ErrNotConfigured ErrorCode = "NOT_CONFIGURED"
	ErrCancelled     ErrorCode = "CANCELLED"
	ErrInternal      ErrorCode = "INTERNAL"
)

// Agent and task error codes
const (
	ErrAgentNotFound ErrorCode = "AGENT_NOT_FOUND"
	ErrAgentBusy     ErrorCode = "AGENT_BUSY"
	ErrTaskNotFound  ErrorCode = "TASK_NOT_FOUND"
	ErrTaskFinished  ErrorCode = "TASK_FINISHED"
)

// DefaultHTTPStatus returns the HTTP status conventionally associated
// with an error code. Unknown codes map to 500.
func DefaultHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrNotFound, ErrAgentNotFound, ErrTaskNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrUnavailable, ErrAgentBusy:
		return http.StatusServiceUnavailable
	case ErrTaskFinished:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
// The HTTP status is derived from the code and can be overridden
// with WithHTTPStatus.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: DefaultHTTPStatus(code)}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatusFor returns the HTTP status for an error. Structured errors
// carry their own status; everything else is a 500.
func HTTPStatusFor(err error) int {
	var e *Error
	if errors.As(err, &e) {
		if e.HTTPStatus != 0 {
			return e.HTTPStatus
		}
		return DefaultHTTPStatus(e.Code)
	}
	return http.StatusInternalServerError
}
