package dblp

import (
	"errors"
	"fmt"
)

// Common errors returned by the DBLP client.
var (
	// ErrNotFound indicates the PID has no record on DBLP.
	ErrNotFound = errors.New("not found on DBLP")

	// ErrRateLimited indicates DBLP refused the request with 429 after retries.
	ErrRateLimited = errors.New("DBLP rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with DBLP")

	// ErrInvalidResponse indicates an unexpected DBLP response body.
	ErrInvalidResponse = errors.New("invalid response from DBLP")
)

// APIError represents a non-retryable HTTP error from DBLP.
type APIError struct {
	StatusCode int
	PID        string
	Message    string
}

func (e *APIError) Error() string {
	if e.PID != "" {
		return fmt.Sprintf("DBLP error (status %d): %s (pid: %s)", e.StatusCode, e.Message, e.PID)
	}
	return fmt.Sprintf("DBLP error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates an unknown PID.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
