package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Kind classifies a pipeline failure. Each kind maps to one user-facing message
// and one HTTP status in the handlers package.
type Kind string

const (
	KindNotFound                 Kind = "not_found"
	KindInvalidInput             Kind = "invalid_input"
	KindUpstreamUnavailable      Kind = "upstream_unavailable"
	KindNoMatches                Kind = "no_matches"
	KindRankingRateLimited       Kind = "ranking_rate_limited"
	KindRankingAuthFailed        Kind = "ranking_auth_failed"
	KindRankingBadRequest        Kind = "ranking_bad_request"
	KindRankingMalformedResponse Kind = "ranking_malformed_response"
	KindRankingUnavailable       Kind = "ranking_unavailable"
	KindRankingUnknown           Kind = "ranking_unknown"
	KindReferentialIntegrity     Kind = "referential_integrity_violation"
	KindTimeout                  Kind = "timeout"
	KindInternal                 Kind = "internal"
)

// Error is a classified failure. Message is safe to show to end users;
// Cause carries the detail for logs and never leaves the server.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error with the default message for its kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: DefaultMessage(kind), Cause: cause}
}

// NewWithMessage creates a classified error with a caller-supplied user message.
func NewWithMessage(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// UserMessage returns the message that may be shown to the end user for err.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return DefaultMessage(KindOf(err))
}

// IsTransient reports whether the caller may reasonably try again later.
func IsTransient(kind Kind) bool {
	switch kind {
	case KindUpstreamUnavailable, KindRankingRateLimited, KindRankingUnavailable, KindTimeout:
		return true
	}
	return false
}

// DefaultMessage returns the user-facing message for a kind.
func DefaultMessage(kind Kind) string {
	switch kind {
	case KindNotFound:
		return "The requested resource was not found."
	case KindInvalidInput:
		return "The request was invalid."
	case KindUpstreamUnavailable:
		return "Could not retrieve college data. Please try again later."
	case KindNoMatches:
		return "No colleges found matching your criteria. Try adjusting your budget or location preferences."
	case KindRankingRateLimited:
		return "The ranking service is busy. Please try again shortly."
	case KindRankingAuthFailed:
		return "College ranking is misconfigured. Please contact support."
	case KindRankingBadRequest, KindRankingMalformedResponse, KindRankingUnknown, KindReferentialIntegrity:
		return "We could not rank your college matches. Please try again later."
	case KindRankingUnavailable:
		return "The ranking service is temporarily unavailable. Please try again later."
	case KindTimeout:
		return "The search took too long. Please try again."
	default:
		return "An internal error occurred."
	}
}
