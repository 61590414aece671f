package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies a provider failure.
type ErrorType string

const (
	ErrorTypeRateLimited ErrorType = "rate_limited" // 429, retry later
	ErrorTypeAuth        ErrorType = "auth"         // bad or missing key, never retried
	ErrorTypeBadRequest  ErrorType = "bad_request"  // provider rejected the request
	ErrorTypeUnavailable ErrorType = "unavailable"  // 5xx, overload, transport, open breaker
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured provider error with classification.
// Message is our own wording; provider payloads only travel in Cause.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Provider   string
	Model      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: errType == ErrorTypeRateLimited || errType == ErrorTypeUnavailable,
		Cause:     cause,
	}
}

// TypeForStatus maps an HTTP status from a provider to an ErrorType.
func TypeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorTypeAuth
	case status >= 500:
		return ErrorTypeUnavailable // includes Anthropic's 529 overloaded
	case status >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}

func messageFor(t ErrorType) string {
	switch t {
	case ErrorTypeRateLimited:
		return "rate limited"
	case ErrorTypeAuth:
		return "authentication failed"
	case ErrorTypeBadRequest:
		return "request rejected"
	case ErrorTypeUnavailable:
		return "provider unavailable"
	default:
		return "provider error"
	}
}

// classifyStatus builds an *Error from a known HTTP status.
func classifyStatus(status int, cause error) *Error {
	t := TypeForStatus(status)
	llmErr := NewError(t, messageFor(t), cause)
	llmErr.StatusCode = status
	return llmErr
}

// classifyFallback handles errors that carry no structured provider information.
// Anything that never produced an HTTP response is a transport failure.
func classifyFallback(err error) *Error {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rate limit"):
		return NewError(ErrorTypeRateLimited, messageFor(ErrorTypeRateLimited), err)
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "eof"):
		return NewError(ErrorTypeUnavailable, "connection failed", err)
	default:
		return NewError(ErrorTypeUnknown, messageFor(ErrorTypeUnknown), err)
	}
}

// isContextErr reports whether err is the caller's context ending. Those are
// not provider failures and are passed through for the caller to classify.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable returns true if the error is a transient provider failure.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
