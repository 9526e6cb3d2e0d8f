package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonToolExecution)
	if Reason(err) != ReasonToolExecution {
		t.Fatalf("expected reason %s, got %s", ReasonToolExecution, Reason(err))
	}
	if !HasReason(err, ReasonToolExecution) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonLLMRateLimit)
	second := Wrap(first, ReasonLLMGenerate)
	if Reason(second) != ReasonLLMRateLimit {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonToolNotFound) != nil {
		t.Fatalf("expected nil passthrough")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil error")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
