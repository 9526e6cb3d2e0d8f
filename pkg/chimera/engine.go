package chimera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/chimera/pkg/dispatch"
	"github.com/harunnryd/chimera/pkg/errorsx"
	"github.com/harunnryd/chimera/pkg/keypool"
	"github.com/harunnryd/chimera/pkg/llm"
	"github.com/harunnryd/chimera/pkg/metrics"
	"github.com/harunnryd/chimera/pkg/redact"
	"github.com/harunnryd/chimera/pkg/resilience"
	"github.com/harunnryd/chimera/pkg/tool"
)

// EngineOptions collects the collaborators the engine needs. Logger and
// Observer default to slog.Default and a noop observer.
type EngineOptions struct {
	Client      llm.Client
	Pool        *keypool.Pool
	Registry    *tool.Registry
	Dispatcher  *dispatch.Dispatcher
	Logger      *slog.Logger
	Observer    metrics.Observer
	MaxAttempts int
	MaxHistory  int
	BasePrompt  string
}

// Engine owns the conversation state and drives the turn loop: generate,
// interpret a possible tool invocation, dispatch it, and fold the result back
// into the conversation for a follow-up turn.
type Engine struct {
	client      llm.Client
	pool        *keypool.Pool
	registry    *tool.Registry
	dispatcher  *dispatch.Dispatcher
	logger      *slog.Logger
	obs         metrics.Observer
	maxAttempts int
	maxHistory  int
	basePrompt  string

	mu      sync.Mutex
	history []llm.Message
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("engine requires an llm client")
	}
	if opts.Pool == nil {
		return nil, fmt.Errorf("engine requires a key pool")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("engine requires a tool registry")
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = dispatch.New(opts.Registry, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.MaxHistory < 2 {
		opts.MaxHistory = 20
	}
	return &Engine{
		client:      opts.Client,
		pool:        opts.Pool,
		registry:    opts.Registry,
		dispatcher:  opts.Dispatcher,
		logger:      opts.Logger,
		obs:         opts.Observer,
		maxAttempts: opts.MaxAttempts,
		maxHistory:  opts.MaxHistory,
		basePrompt:  opts.BasePrompt,
	}, nil
}

// ProcessInput runs one user turn and returns the assistant's reply. Tool
// failures come back as conversational text; only LLM-level failures that
// survive key rotation surface as errors.
func (e *Engine) ProcessInput(ctx context.Context, input string) (string, error) {
	e.logger.Debug("user_turn", "input", redact.Text(input))
	e.appendMessage(llm.Message{Role: llm.RoleUser, Content: input})

	resp, err := e.generate(ctx)
	if err != nil {
		e.dropLastMessage()
		return "", err
	}

	req, ok := ExtractInvocation(resp)
	if !ok {
		e.appendMessage(llm.Message{Role: llm.RoleAssistant, Content: resp.Text})
		return resp.Text, nil
	}

	result := e.dispatcher.Dispatch(ctx, req)
	if !result.OK() {
		reply := fmt.Sprintf("I tried to use the %q tool but it did not work: %s", req.Name, result.Text)
		e.appendMessage(llm.Message{Role: llm.RoleAssistant, Content: reply})
		return reply, nil
	}

	e.appendMessage(llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("Using the %s tool.", req.Name)})
	e.appendMessage(llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("Tool %s returned: %s\nAnswer the original question using this result.", req.Name, result.Text)})

	followup, err := e.generate(ctx)
	if err != nil {
		// The tool already produced an answer; better to hand that over than
		// to fail the whole turn on the summarization call.
		e.logger.Warn("followup_generation_failed", "tool", req.Name, "error", err)
		reply := fmt.Sprintf("The %s tool returned: %s", req.Name, result.Text)
		e.appendMessage(llm.Message{Role: llm.RoleAssistant, Content: reply})
		return reply, nil
	}
	e.appendMessage(llm.Message{Role: llm.RoleAssistant, Content: followup.Text})
	return followup.Text, nil
}

// generate performs one LLM call with key rotation. Rate-limit and network
// failures rotate to the next key up to the attempt budget; any other error
// surfaces immediately.
func (e *Engine) generate(ctx context.Context) (llm.Response, error) {
	input := e.buildContext()
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		lease, err := e.pool.Acquire(ctx)
		if err != nil {
			return llm.Response{}, err
		}
		started := time.Now()
		resp, err := e.client.Generate(ctx, input, lease.Credential)
		if err == nil {
			e.pool.ReportSuccess(lease)
			e.obs.RecordEvent(metrics.MetricsEvent{
				Name:  metrics.EventLLMCall,
				Time:  started,
				Value: time.Since(started).Seconds(),
				Tags:  map[string]string{"provider": e.client.Name()},
			})
			return resp, nil
		}
		lastErr = err
		switch {
		case !resilience.IsTransient(err):
			e.pool.ReportFailure(lease, keypool.FailureOther)
			return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
		case resilience.IsRateLimit(err):
			e.pool.ReportFailure(lease, keypool.FailureRateLimit)
			e.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventLLMRateLimited, Time: started})
			e.logger.Warn("llm_rate_limited", "attempt", attempt, "max_attempts", e.maxAttempts)
		case resilience.IsNetwork(err):
			e.pool.ReportFailure(lease, keypool.FailureNetwork)
			e.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventLLMNetworkErr, Time: started})
			e.logger.Warn("llm_network_error", "attempt", attempt, "max_attempts", e.maxAttempts, "error", err)
		}
		if ctx.Err() != nil {
			return llm.Response{}, ctx.Err()
		}
	}
	reason := errorsx.ReasonLLMGenerate
	switch {
	case resilience.IsRateLimit(lastErr):
		reason = errorsx.ReasonLLMRateLimit
	case resilience.IsNetwork(lastErr):
		reason = errorsx.ReasonLLMNetwork
	}
	return llm.Response{}, errorsx.Wrap(lastErr, reason)
}

// buildContext assembles the provider input: the system prompt with the tool
// manifest, then the trimmed history.
func (e *Engine) buildContext() llm.Context {
	manifest := e.registry.Manifest()
	e.mu.Lock()
	history := make([]llm.Message, len(e.history))
	copy(history, e.history)
	e.mu.Unlock()

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(e.basePrompt, manifest)})
	messages = append(messages, history...)
	return llm.Context{Messages: messages, Tools: manifest}
}

func (e *Engine) appendMessage(msg llm.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, msg)
	if len(e.history) > e.maxHistory {
		e.history = e.history[len(e.history)-e.maxHistory:]
	}
}

func (e *Engine) dropLastMessage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) > 0 {
		e.history = e.history[:len(e.history)-1]
	}
}

// ClearHistory wipes the conversation, keeping the tools and keys intact.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// HistoryLen reports how many turns are currently retained.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// KeyStatus exposes the rotation controller's view for the status command.
func (e *Engine) KeyStatus() keypool.PoolStatus {
	return e.pool.Snapshot()
}

// ToolNames lists the registered tools for the REPL help surface.
func (e *Engine) ToolNames() []string {
	return e.registry.Names()
}
