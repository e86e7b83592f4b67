package domain

import (
	"fmt"
	"time"
)

// AuthError means the credential was rejected (401, or 403 without a
// rate-limit indication). It is fatal at the organization level and never
// retried.
type AuthError struct {
	Resource string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected for %s: %v", e.Resource, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError means the requested resource does not exist or is not
// visible to the credential. Fatal for top-level resources, skippable for
// a single repository or commit during bulk collection.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RateLimitError means the request quota stayed exhausted after the one
// permitted pause-and-retry cycle.
type RateLimitError struct {
	Resource string
	Reset    time.Time
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exhausted for %s (resets %s): %v",
		e.Resource, e.Reset.Format(time.RFC3339), e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// NetworkError means a transport-level failure persisted through the
// bounded retry budget.
type NetworkError struct {
	Resource string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request for %s failed after %d attempts: %v", e.Resource, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
