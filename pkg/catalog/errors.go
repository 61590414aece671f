package catalog

import (
	"fmt"
	"net/http"

	"github.com/collegematch/collegematch-engine/pkg/logging"
)

// StatusError is a non-2xx response from the Scorecard API.
// Only server errors are worth another attempt.
type StatusError struct {
	StatusCode int
	Body       string // truncated, for logs only
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scorecard API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable implements retry.RetryableError.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// TransportError is a failure to get any HTTP response at all.
// The message is sanitized because net/url errors embed the request URL.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "scorecard request failed: " + logging.SanitizeError(e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable implements retry.RetryableError.
func (e *TransportError) IsRetryable() bool {
	return true
}

// DecodeError is a 2xx response whose body is not the expected JSON document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "scorecard response could not be decoded: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRetryable implements retry.RetryableError.
func (e *DecodeError) IsRetryable() bool {
	return false
}
