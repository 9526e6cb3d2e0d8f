package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/chimera/pkg/metrics"
	"github.com/harunnryd/chimera/pkg/tool"
)

// Dispatcher resolves an invocation request against the registry, validates
// its arguments, and runs the handler inside an isolated failure boundary.
// It holds no per-call state, executes at most once per request, and never
// retries: retry policy belongs to the conversation loop.
type Dispatcher struct {
	registry *tool.Registry
	logger   *slog.Logger
	obs      metrics.Observer
}

func New(registry *tool.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger, obs: metrics.NoopObserver{}}
}

func (d *Dispatcher) SetObserver(obs metrics.Observer) {
	if obs != nil {
		d.obs = obs
	}
}

// Dispatch runs one request to a tagged result. Tool panics and errors are
// converted to execution_error results; nothing escapes to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	started := time.Now()
	result := d.dispatch(ctx, req)
	d.obs.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventToolDispatch,
		Time:  started,
		Value: time.Since(started).Seconds(),
		Tags:  map[string]string{"tool": req.Name, "outcome": string(result.Kind)},
	})
	if result.OK() {
		d.logger.Info("tool_dispatched", "tool", req.Name, "call_id", req.ID)
	} else {
		d.logger.Warn("tool_dispatch_failed", "tool", req.Name, "call_id", req.ID, "outcome", string(result.Kind))
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Result {
	spec, err := d.registry.Lookup(req.Name)
	if err != nil {
		var nf tool.NotFoundError
		if errors.As(err, &nf) {
			return failure(ResultUnknownTool, fmt.Sprintf("unknown tool %q", req.Name))
		}
		return failure(ResultUnknownTool, err.Error())
	}

	args, err := tool.Validate(spec.Fields, req.Arguments)
	if err != nil {
		return failure(ResultInvalidArgs, err.Error())
	}

	return d.execute(ctx, spec, args)
}

// execute is the isolation boundary: a panicking tool must never take the
// conversation loop down with it.
func (d *Dispatcher) execute(ctx context.Context, spec tool.Spec, args map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool_panicked", "tool", spec.Name, "panic", fmt.Sprint(r))
			result = failure(ResultExecutionError, fmt.Sprintf("tool %q panicked: %v", spec.Name, r))
		}
	}()
	text, err := spec.Handler(ctx, args)
	if err != nil {
		return failure(ResultExecutionError, fmt.Sprintf("tool %q failed: %v", spec.Name, err))
	}
	return success(text)
}
