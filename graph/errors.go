package graph

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failed Graph operation.
type ErrorKind string

const (
	// KindTokenExpired means the access token was rejected (HTTP 401).
	// Never retried; the caller should refresh or re-authenticate.
	KindTokenExpired ErrorKind = "token_expired"

	// KindRateLimited means Graph throttled the request (HTTP 429).
	// Never retried internally; RetryAfter carries the advertised wait.
	KindRateLimited ErrorKind = "rate_limited"

	// KindServerError means Graph kept failing with 5xx responses until
	// retries were exhausted.
	KindServerError ErrorKind = "server_error"

	// KindNetworkError means transport-level failures (timeouts,
	// connectivity) persisted until retries were exhausted.
	KindNetworkError ErrorKind = "network_error"

	// KindClientError means Graph rejected the request (4xx other than
	// 401/429). StatusCode and Message carry the provider's diagnosis.
	KindClientError ErrorKind = "client_error"

	// KindValidation means a local precondition failed before any network
	// call was made.
	KindValidation ErrorKind = "validation"
)

// Error is the failure type returned by all Graph operations.
type Error struct {
	Kind       ErrorKind
	StatusCode int           // HTTP status, when one was received
	Message    string        // provider's structured message or raw body
	RetryAfter time.Duration // advisory wait, set for KindRateLimited
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("%s: retry after %s", e.Kind, e.RetryAfter)
	case KindClientError:
		return fmt.Sprintf("%s: API error %d: %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func newValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// kindOf extracts the ErrorKind from an error chain, or "" if the error is
// not a graph.Error.
func kindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsTokenExpired reports whether err is a Graph token expiry failure.
func IsTokenExpired(err error) bool { return kindOf(err) == KindTokenExpired }

// IsRateLimited reports whether err is a Graph throttling failure.
func IsRateLimited(err error) bool { return kindOf(err) == KindRateLimited }

// IsValidation reports whether err is a local precondition failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }
