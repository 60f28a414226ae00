package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Provider error codes
const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrAuthentication      ErrorCode = "AUTHENTICATION"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrQuotaExceeded       ErrorCode = "QUOTA_EXCEEDED"
	ErrUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
)

// Pipeline error codes
const (
	ErrValidation       ErrorCode = "VALIDATION"
	ErrSubtaskTimeout   ErrorCode = "SUBTASK_TIMEOUT"
	ErrCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Biometrics error codes
const (
	ErrProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrProfileExpired     ErrorCode = "PROFILE_EXPIRED"
	ErrTooFewSamples      ErrorCode = "TOO_FEW_SAMPLES"
	ErrFeatureDimMismatch ErrorCode = "FEATURE_DIM_MISMATCH"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
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
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
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

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error is retryable.
// Transient provider failures (rate limits, upstream timeouts, 5xx)
// are the only errors that should be retried.
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

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// AsError extracts a *Error from err, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// WrapError wraps an arbitrary error into a *Error with the given code.
// If err is already a *Error it is returned unchanged.
func WrapError(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// =============================================================================
// 常用错误构造
// =============================================================================

// NewValidationError 构造音频校验错误（请求在分发前被拒绝）。
func NewValidationError(reason string) *Error {
	return &Error{Code: ErrValidation, Message: reason, HTTPStatus: 400}
}

// NewRateLimitError 构造可重试的限流错误。
func NewRateLimitError(provider string) *Error {
	return &Error{
		Code:       ErrRateLimited,
		Message:    "provider rate limit exceeded",
		HTTPStatus: 429,
		Retryable:  true,
		Provider:   provider,
	}
}

// NewTimeoutError 构造可重试的上游超时错误。
func NewTimeoutError(provider string, cause error) *Error {
	return &Error{
		Code:      ErrUpstreamTimeout,
		Message:   "provider call timed out",
		Retryable: true,
		Provider:  provider,
		Cause:     cause,
	}
}

// NewSubtaskTimeoutError 构造子任务超时错误（截止时间内未完成，被取消并省略）。
func NewSubtaskTimeoutError(subtask string) *Error {
	return &Error{
		Code:    ErrSubtaskTimeout,
		Message: fmt.Sprintf("subtask %s did not finish before deadline", subtask),
	}
}
