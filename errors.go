package outlook

import (
	"fmt"
	"net/http"

	"github.com/pepperhq/outlook-agent/graph"
)

// API error codes as constants
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidState      = "invalid_state"
	ErrorCodeNotAuthenticated  = "not_authenticated"
	ErrorCodeTokenExpired      = "token_expired"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrorCodeUpstreamError     = "upstream_error"
	ErrorCodeServerError       = "server_error"
	ErrorCodeNotFound          = "not_found"
)

// APIError represents a JSON error response from this backend.
type APIError struct {
	Code        string // machine-readable error code
	Description string // human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewAPIError creates a new API error.
func NewAPIError(code, description string, status int) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common API errors as reusable constructors
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters
	ErrInvalidRequest = func(desc string) *APIError {
		return NewAPIError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrInvalidState indicates the OAuth state is unknown or already used
	ErrInvalidState = func(desc string) *APIError {
		return NewAPIError(ErrorCodeInvalidState, desc, http.StatusBadRequest)
	}

	// ErrNotAuthenticated indicates no stored credentials exist for the user
	ErrNotAuthenticated = func(desc string) *APIError {
		return NewAPIError(ErrorCodeNotAuthenticated, desc, http.StatusUnauthorized)
	}

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = func(desc string) *APIError {
		return NewAPIError(ErrorCodeNotFound, desc, http.StatusNotFound)
	}

	// ErrServerError indicates an internal server error occurred
	ErrServerError = func(desc string) *APIError {
		return NewAPIError(ErrorCodeServerError, desc, http.StatusInternalServerError)
	}
)

// apiErrorFromGraph maps a Graph operation failure onto the HTTP surface.
// Client errors pass the provider's status straight through; infrastructure
// failures surface as 502 so callers can tell them apart from this
// backend's own errors.
func apiErrorFromGraph(err *graph.Error) *APIError {
	switch err.Kind {
	case graph.KindTokenExpired:
		return NewAPIError(ErrorCodeTokenExpired, "access token expired, refresh required", http.StatusUnauthorized)
	case graph.KindValidation:
		return NewAPIError(ErrorCodeInvalidRequest, err.Message, http.StatusBadRequest)
	case graph.KindRateLimited:
		return NewAPIError(ErrorCodeRateLimitExceeded,
			fmt.Sprintf("provider rate limit exceeded, retry after %s", err.RetryAfter),
			http.StatusTooManyRequests)
	case graph.KindClientError:
		return NewAPIError(ErrorCodeUpstreamError, err.Message, err.StatusCode)
	case graph.KindServerError, graph.KindNetworkError:
		return NewAPIError(ErrorCodeUpstreamError, err.Message, http.StatusBadGateway)
	default:
		return ErrServerError(err.Message)
	}
}
