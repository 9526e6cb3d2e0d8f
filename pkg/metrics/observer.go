package metrics

import "time"

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

const (
	EventLLMCall        = "llm_call"
	EventLLMRateLimited = "llm_rate_limited"
	EventLLMNetworkErr  = "llm_network_error"
	EventKeyAcquired    = "key_acquired"
	EventKeyDisabled    = "key_disabled"
	EventKeyExhausted   = "key_pool_exhausted"
	EventToolDispatch   = "tool_dispatch"
	EventToolDiscovered = "tool_discovered"
)
