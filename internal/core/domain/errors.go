package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers are expected to branch on.
var (
	// ErrCacheMiss is returned when a cache key is absent or its TTL has
	// elapsed. Expired entries are indistinguishable from missing ones.
	ErrCacheMiss = errors.New("cache miss")

	// ErrAuthentication covers credential and grant failures. Callers must
	// not retry these with the same credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRequestTimeout marks a network operation that exceeded its bound
	// or was cancelled before completing.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrNotFound is returned when a location name cannot be resolved
	// against the loaded reference data.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrStorage wraps local persistence faults.
	ErrStorage = errors.New("storage error")
)

// APIError carries a non-2xx upstream response
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error: status %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// NewAPIError creates an APIError for the given response status
func NewAPIError(statusCode int, message, requestID string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		RequestID:  requestID,
	}
}
