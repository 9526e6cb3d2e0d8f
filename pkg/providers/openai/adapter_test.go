package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harunnryd/chimera/pkg/llm"
	"github.com/harunnryd/chimera/pkg/resilience"
)

func serve(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAdapter("test-model", srv.URL)
}

func TestGenerateParsesChatCompletion(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	adapter := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": "hello from the model"},
			}},
			"usage": map[string]any{"prompt_tokens": 7.0, "completion_tokens": 3.0, "total_tokens": 10.0},
		})
	})

	resp, err := adapter.Generate(context.Background(), llm.Context{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, "sk-test")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "hello from the model" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Fatalf("usage not parsed: %+v", resp.Usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("credential not forwarded: %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("model missing from request: %v", gotBody)
	}
}

func TestGenerateParsesNativeToolCalls(t *testing.T) {
	adapter := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"content": "",
					"tool_calls": []any{map[string]any{
						"id": "call-7",
						"function": map[string]any{
							"name":      "calculator",
							"arguments": `{"operation":"add","a":2,"b":3}`,
						},
					}},
				},
			}},
		})
	})

	resp, err := adapter.Generate(context.Background(), llm.Context{}, "sk")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call-7" || call.Name != "calculator" {
		t.Fatalf("unexpected call %+v", call)
	}
	if call.Arguments["operation"] != "add" {
		t.Fatalf("arguments not decoded: %v", call.Arguments)
	}
}

func TestGenerateMapsRateLimit(t *testing.T) {
	adapter := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := adapter.Generate(context.Background(), llm.Context{}, "sk")
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestGenerateMapsTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	adapter := NewAdapter("m", srv.URL)
	srv.Close()

	_, err := adapter.Generate(context.Background(), llm.Context{}, "sk")
	if !resilience.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestGenerateSendsToolManifest(t *testing.T) {
	var gotBody map[string]any
	adapter := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "ok"}}},
		})
	})

	_, err := adapter.Generate(context.Background(), llm.Context{
		Tools: []map[string]any{{"name": "echo"}},
	}, "sk")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tools, _ := gotBody["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tool manifest not sent: %v", gotBody)
	}
	wrapped, _ := tools[0].(map[string]any)
	if wrapped["type"] != "function" {
		t.Fatalf("tools must use the function wrapper: %v", wrapped)
	}
}
