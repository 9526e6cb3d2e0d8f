package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonToolDuplicate   ReasonCode = "tool_duplicate"
	ReasonToolNotFound    ReasonCode = "tool_not_found"
	ReasonToolInvalidArgs ReasonCode = "tool_invalid_args"
	ReasonToolExecution   ReasonCode = "tool_execution"
	ReasonToolDiscovery   ReasonCode = "tool_discovery"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"
	ReasonLLMNetwork   ReasonCode = "llm_network"

	ReasonKeyExhausted ReasonCode = "key_pool_exhausted"

	ReasonConfigInvalid ReasonCode = "config_invalid"
)
