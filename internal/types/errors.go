package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Luna coaching errors.
type ErrorCode string

// Session and state machine error codes
const (
	SESSION_NOT_FOUND  ErrorCode = "SESSION_NOT_FOUND"
	SESSION_LOCKED     ErrorCode = "SESSION_LOCKED"
	INVALID_TRANSITION ErrorCode = "INVALID_TRANSITION"
)

// Research error codes
const (
	PROVIDER_ERROR  ErrorCode = "PROVIDER_ERROR"
	RESEARCH_FAILED ErrorCode = "RESEARCH_FAILED"
)

// Strategy error codes
const (
	STRATEGY_UNAVAILABLE ErrorCode = "STRATEGY_UNAVAILABLE"
	SPECIALIST_FAILED    ErrorCode = "SPECIALIST_FAILED"
)

// Planning and safety error codes
const (
	PLAN_INVALID     ErrorCode = "PLAN_INVALID"
	POLICY_VIOLATION ErrorCode = "POLICY_VIOLATION"
)

// Dispatch error codes
const (
	DISPATCH_ERROR          ErrorCode = "DISPATCH_ERROR"
	DISPATCH_LIMIT_EXCEEDED ErrorCode = "DISPATCH_LIMIT_EXCEEDED"
	AUTOMATION_UNAVAILABLE  ErrorCode = "AUTOMATION_UNAVAILABLE"
)

// Store error codes
const (
	STORE_ERROR       ErrorCode = "STORE_ERROR"
	KEY_NOT_FOUND     ErrorCode = "KEY_NOT_FOUND"
	LOCK_NOT_ACQUIRED ErrorCode = "LOCK_NOT_ACQUIRED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// LunaError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type LunaError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *LunaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *LunaError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a LunaError with the same Code.
func (e *LunaError) Is(target error) bool {
	var lunaErr *LunaError
	if errors.As(target, &lunaErr) {
		return e.Code == lunaErr.Code
	}
	return false
}

// NewError creates a new non-retryable LunaError with the given code and message.
func NewError(code ErrorCode, message string) *LunaError {
	return &LunaError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable LunaError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., provider timeouts).
func NewRetryableError(code ErrorCode, message string) *LunaError {
	return &LunaError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable LunaError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *LunaError {
	return &LunaError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a retryable LunaError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *LunaError {
	return &LunaError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err carries a retryable hint anywhere in its chain.
func IsRetryable(err error) bool {
	var lunaErr *LunaError
	if errors.As(err, &lunaErr) {
		return lunaErr.Retryable
	}
	return false
}

// CodeOf extracts the error code from err, or returns the empty code when err
// is not a LunaError.
func CodeOf(err error) ErrorCode {
	var lunaErr *LunaError
	if errors.As(err, &lunaErr) {
		return lunaErr.Code
	}
	return ""
}
