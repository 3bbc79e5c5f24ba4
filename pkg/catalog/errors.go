package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a distinguished response from the remote authority.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// ConnectionError is a transport-level failure: the authority could not be
// reached at all. It is retryable by the user; the client never auto-retries.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach server at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsAuthFailed reports whether the authority rejected the caller's identity
// (bad login or missing/expired credential).
func IsAuthFailed(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether the authority rejected an action the client's
// optimistic gating believed was permitted. Surfaced distinctly from generic
// failure so the user understands it is a permissions issue.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether the requested resource does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnavailable reports whether the failure was transport-level.
func IsUnavailable(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
