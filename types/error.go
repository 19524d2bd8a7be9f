package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the game packages.
type ErrorCode string

// Input and rule error codes
const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrInvalidWord   ErrorCode = "INVALID_WORD"
	ErrUnknownAction ErrorCode = "UNKNOWN_ACTION"
	ErrGameFinished  ErrorCode = "GAME_FINISHED"
)

// Protocol error codes
const (
	ErrReceiverMismatch ErrorCode = "RECEIVER_MISMATCH"
	ErrDeserialization  ErrorCode = "DESERIALIZATION"
)

// Capability error codes
const (
	ErrCapabilityTimeout ErrorCode = "CAPABILITY_TIMEOUT"
	ErrCapability        ErrorCode = "CAPABILITY_ERROR"
	ErrNotConnected      ErrorCode = "NOT_CONNECTED"
)

// Agent error codes
const (
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Key       string    `json:"key,omitempty"`
	Cause     error     `json:"-"`
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
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithKey records the offending field of a deserialization failure.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
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

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetErrorCode(err) == code
}
