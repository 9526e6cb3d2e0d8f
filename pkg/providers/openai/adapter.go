package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/harunnryd/chimera/pkg/llm"
	"github.com/harunnryd/chimera/pkg/resilience"
)

// DefaultBaseURL is the OpenAI-compatible facade the agent talks to out of
// the box.
const DefaultBaseURL = "https://text.pollinations.ai/openai"

// Adapter speaks the OpenAI chat-completions wire format. The credential is
// passed per request, not stored, so one adapter serves the whole key pool.
type Adapter struct {
	Model       string
	BaseURL     string
	Temperature float64
	Client      *http.Client
}

func NewAdapter(model, baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{
		Model:       model,
		BaseURL:     baseURL,
		Temperature: 0.7,
		Client:      &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Adapter) Name() string { return "openai" }

func (a *Adapter) Generate(ctx context.Context, input llm.Context, credential string) (llm.Response, error) {
	body, err := a.buildRequest(input)
	if err != nil {
		return llm.Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/chat/completions", body)
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	resp, err := a.client().Do(req)
	if err != nil {
		return llm.Response{}, resilience.NetworkError{Provider: a.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		payload, _ := io.ReadAll(resp.Body)
		return llm.Response{}, resilience.RateLimitError{Provider: a.Name(), Message: string(payload)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return llm.Response{}, errors.New(string(payload))
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return llm.Response{}, err
	}
	return parseResponse(payload)
}

func (a *Adapter) buildRequest(input llm.Context) (io.Reader, error) {
	messages := make([]map[string]any, 0, len(input.Messages))
	for _, m := range input.Messages {
		messages = append(messages, map[string]any{"role": m.Role, "content": m.Content})
	}
	payload := map[string]any{
		"model":       a.Model,
		"messages":    messages,
		"stream":      false,
		"temperature": a.Temperature,
	}
	if len(input.Tools) > 0 {
		tools := make([]map[string]any, 0, len(input.Tools))
		for _, t := range input.Tools {
			tools = append(tools, map[string]any{"type": "function", "function": t})
		}
		payload["tools"] = tools
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func parseResponse(raw map[string]any) (llm.Response, error) {
	choices, _ := raw["choices"].([]any)
	if len(choices) == 0 {
		return llm.Response{}, errors.New("no choices in response")
	}
	first, _ := choices[0].(map[string]any)
	msg, _ := first["message"].(map[string]any)
	content, _ := msg["content"].(string)
	resp := llm.Response{Text: content}
	if reason, _ := first["finish_reason"].(string); reason != "" {
		resp.FinishReason = reason
	}
	if usage, ok := raw["usage"].(map[string]any); ok {
		resp.Usage = llm.Usage{
			PromptTokens:     intValue(usage["prompt_tokens"]),
			CompletionTokens: intValue(usage["completion_tokens"]),
			TotalTokens:      intValue(usage["total_tokens"]),
		}
	}
	if calls, ok := msg["tool_calls"].([]any); ok {
		for _, item := range calls {
			call, _ := item.(map[string]any)
			fn, _ := call["function"].(map[string]any)
			argsRaw, _ := fn["arguments"].(string)
			args := map[string]any{}
			_ = json.Unmarshal([]byte(argsRaw), &args)
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:        stringValue(call["id"]),
				Name:      stringValue(fn["name"]),
				Arguments: args,
			})
		}
	}
	return resp, nil
}

func (a *Adapter) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return http.DefaultClient
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) int {
	f, _ := v.(float64)
	return int(f)
}
