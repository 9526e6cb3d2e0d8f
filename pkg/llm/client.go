package llm

import "context"

// Message is one turn of the conversation in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Context is everything a provider needs for one generation: the message
// list plus the tool manifest for providers with native tool calling.
type Context struct {
	Messages []Message
	Tools    []map[string]any
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolCall is a provider-native tool invocation parsed out of a response.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Response is the provider-neutral result of one generation. Text may still
// embed a JSON tool directive; interpreting that is the engine's job.
type Response struct {
	Text         string
	Usage        Usage
	FinishReason string
	ToolCalls    []ToolCall
}

// Client is the outbound LLM interface. The credential is supplied per call
// so the rotation controller stays in charge of key selection.
type Client interface {
	Generate(ctx context.Context, input Context, credential string) (Response, error)
	Name() string
}
