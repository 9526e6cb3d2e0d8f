package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRateLimit(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", RateLimitError{Provider: "openai", Message: "429"})
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit detection through wrapping")
	}
	if IsRateLimit(errors.New("other")) {
		t.Fatalf("did not expect rate limit for plain error")
	}
}

func TestIsNetwork(t *testing.T) {
	err := NetworkError{Provider: "openai", Err: errors.New("connection refused")}
	if !IsNetwork(err) {
		t.Fatalf("expected network detection")
	}
	if IsNetwork(errors.New("other")) {
		t.Fatalf("did not expect network for plain error")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(context.Canceled) {
		t.Fatalf("cancellation must not be transient")
	}
	if !IsTransient(RateLimitError{}) {
		t.Fatalf("rate limit must be transient")
	}
	if IsTransient(errors.New("validation")) {
		t.Fatalf("plain errors are not transient")
	}
}
