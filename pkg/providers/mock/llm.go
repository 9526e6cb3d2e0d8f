package mock

import (
	"context"
	"sync"

	"github.com/harunnryd/chimera/pkg/llm"
)

// Step scripts one Generate call: either a response or an error.
type Step struct {
	Response llm.Response
	Err      error
}

// LLMClient replays a scripted sequence of outcomes and records every call,
// including which credential was used, so rotation behavior is observable
// from tests.
type LLMClient struct {
	mu          sync.Mutex
	steps       []Step
	calls       int
	Credentials []string
	Inputs      []llm.Context
}

func NewLLMClient(steps ...Step) *LLMClient {
	return &LLMClient{steps: steps}
}

func (c *LLMClient) Name() string { return "mock" }

func (c *LLMClient) Generate(_ context.Context, input llm.Context, credential string) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Credentials = append(c.Credentials, credential)
	c.Inputs = append(c.Inputs, input)
	if c.calls >= len(c.steps) {
		return llm.Response{Text: "ok"}, nil
	}
	step := c.steps[c.calls]
	c.calls++
	return step.Response, step.Err
}

func (c *LLMClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Credentials)
}
