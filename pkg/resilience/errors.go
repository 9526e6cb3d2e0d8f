package resilience

import (
	"context"
	"errors"
	"net"
)

// RateLimitError represents a provider rate limit response.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limit"
}

// IsRateLimit returns true when the error is a RateLimitError.
func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

// NetworkError represents a transport-level failure reaching a provider.
type NetworkError struct {
	Provider string
	Err      error
}

func (e NetworkError) Error() string {
	if e.Err == nil {
		return "network error"
	}
	return e.Err.Error()
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// IsNetwork returns true for NetworkError and raw net.Error values.
func IsNetwork(err error) bool {
	var ne NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}

// IsTransient reports whether a provider error is worth trying on another
// credential. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return IsRateLimit(err) || IsNetwork(err)
}
