package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/harunnryd/chimera/pkg/errorsx"
	"github.com/harunnryd/chimera/pkg/keypool"
)

// Engine is the conversational surface the REPL drives. Satisfied by
// chimera.Engine; narrowed here so the loop is testable with a stub.
type Engine interface {
	ProcessInput(ctx context.Context, input string) (string, error)
	ClearHistory()
	ToolNames() []string
	KeyStatus() keypool.PoolStatus
}

// REPL reads lines from In, routes session commands, and hands everything
// else to the engine. It runs until exit, EOF or context cancellation.
type REPL struct {
	engine Engine
	logger *slog.Logger
	hooks  Hooks
	state  atomic.Int32

	In     io.Reader
	Out    io.Writer
	Prompt string
}

func NewREPL(engine Engine, logger *slog.Logger, in io.Reader, out io.Writer) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{
		engine: engine,
		logger: logger,
		In:     in,
		Out:    out,
		Prompt: "you> ",
	}
}

func (r *REPL) SetHooks(hooks Hooks) { r.hooks = hooks }

func (r *REPL) State() State { return State(r.state.Load()) }

func (r *REPL) Stop() error {
	r.state.Store(int32(StateStopped))
	return nil
}

func (r *REPL) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateNew), int32(StateStarting)) {
		return errors.New("runner already started")
	}
	PrintBanner(r.Out)
	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}
	r.state.Store(int32(StateRunning))
	r.logger.Info("session_started", "tools", len(r.engine.ToolNames()))

	scanner := bufio.NewScanner(r.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for r.State() == StateRunning {
		fmt.Fprint(r.Out, r.Prompt)
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if r.handleCommand(line) {
			continue
		}
		r.turn(ctx, line)
	}

	r.state.Store(int32(StateDraining))
	if r.hooks.OnStop != nil {
		r.hooks.OnStop()
	}
	r.state.Store(int32(StateStopped))
	r.logger.Info("session_stopped")
	fmt.Fprintln(r.Out, "bye")
	return scanner.Err()
}

// handleCommand intercepts session commands. Returns false when the line is
// conversation input.
func (r *REPL) handleCommand(line string) bool {
	switch strings.ToLower(line) {
	case "help":
		fmt.Fprintln(r.Out, "commands: help, tools, keys, clear, exit")
		fmt.Fprintln(r.Out, "anything else is sent to the assistant")
	case "tools":
		names := r.engine.ToolNames()
		if len(names) == 0 {
			fmt.Fprintln(r.Out, "no tools registered")
			return true
		}
		for _, name := range names {
			fmt.Fprintf(r.Out, "  %s\n", name)
		}
	case "keys":
		status := r.engine.KeyStatus()
		fmt.Fprintf(r.Out, "keys: %d total, %d eligible, %d cooling, %d disabled\n",
			status.Total, status.Eligible, status.Cooling, status.Disabled)
		for _, k := range status.Keys {
			if k.NextEligibleIn > 0 {
				fmt.Fprintf(r.Out, "  %s %s (eligible in %s, failures %d)\n", k.Key, k.State, k.NextEligibleIn, k.Failures)
				continue
			}
			fmt.Fprintf(r.Out, "  %s %s\n", k.Key, k.State)
		}
	case "clear":
		r.engine.ClearHistory()
		fmt.Fprintln(r.Out, "history cleared")
	case "exit", "quit":
		r.state.Store(int32(StateDraining))
	default:
		return false
	}
	return true
}

func (r *REPL) turn(ctx context.Context, input string) {
	reply, err := r.engine.ProcessInput(ctx, input)
	if err != nil {
		if errorsx.HasReason(err, errorsx.ReasonKeyExhausted) {
			fmt.Fprintln(r.Out, "All API keys are cooling down or disabled. Please try again shortly.")
			return
		}
		r.logger.Error("turn_failed", "error", err)
		fmt.Fprintf(r.Out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(r.Out, "chimera> %s\n", reply)
}
