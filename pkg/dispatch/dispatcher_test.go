package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/harunnryd/chimera/pkg/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func calculatorRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	spec := tool.New("calculator", "basic arithmetic").
		String("operation", "add, sub, mul or div", true).
		Number("a", "left operand", true).
		Number("b", "right operand", true).
		Handler(func(_ context.Context, args map[string]any) (string, error) {
			a := args["a"].(float64)
			b := args["b"].(float64)
			switch args["operation"].(string) {
			case "add":
				return strconv.FormatFloat(a+b, 'f', -1, 64), nil
			case "sub":
				return strconv.FormatFloat(a-b, 'f', -1, 64), nil
			case "mul":
				return strconv.FormatFloat(a*b, 'f', -1, 64), nil
			case "div":
				if b == 0 {
					return "", errors.New("division by zero")
				}
				return strconv.FormatFloat(a/b, 'f', -1, 64), nil
			default:
				return "", errors.New("unsupported operation")
			}
		}).
		MustSpec()
	if err := reg.Register(spec); err != nil {
		t.Fatalf("register calculator: %v", err)
	}
	return reg
}

func TestDispatchCalculatorCoercesStringOperands(t *testing.T) {
	d := New(calculatorRegistry(t), testLogger())
	result := d.Dispatch(context.Background(), Request{
		ID:   "call-1",
		Name: "calculator",
		Arguments: map[string]any{
			"operation": "add",
			"a":         "2",
			"b":         "3",
		},
	})
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s", result.Kind, result.Text)
	}
	if !strings.Contains(result.Text, "5") {
		t.Fatalf("expected result text containing 5, got %q", result.Text)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d := New(calculatorRegistry(t), testLogger())
	result := d.Dispatch(context.Background(), Request{Name: "teleporter"})
	if result.Kind != ResultUnknownTool {
		t.Fatalf("expected unknown_tool, got %s", result.Kind)
	}
	if !strings.Contains(result.Text, "teleporter") {
		t.Fatalf("expected offending name in message, got %q", result.Text)
	}
}

func TestDispatchInvalidArgsEnumeratesAll(t *testing.T) {
	d := New(calculatorRegistry(t), testLogger())
	result := d.Dispatch(context.Background(), Request{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "add"},
	})
	if result.Kind != ResultInvalidArgs {
		t.Fatalf("expected invalid_args, got %s", result.Kind)
	}
	if !strings.Contains(result.Text, "a:") || !strings.Contains(result.Text, "b:") {
		t.Fatalf("expected both missing fields reported, got %q", result.Text)
	}
}

func TestDispatchToolErrorIsIsolated(t *testing.T) {
	d := New(calculatorRegistry(t), testLogger())
	result := d.Dispatch(context.Background(), Request{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "div", "a": 1, "b": 0},
	})
	if result.Kind != ResultExecutionError {
		t.Fatalf("expected execution_error, got %s", result.Kind)
	}
}

func TestDispatchPanicIsIsolatedAndNextCallWorks(t *testing.T) {
	reg := calculatorRegistry(t)
	panicky := tool.New("detonator", "always panics").
		Handler(func(context.Context, map[string]any) (string, error) {
			panic("kaboom")
		}).
		MustSpec()
	if err := reg.Register(panicky); err != nil {
		t.Fatalf("register: %v", err)
	}

	d := New(reg, testLogger())
	result := d.Dispatch(context.Background(), Request{Name: "detonator"})
	if result.Kind != ResultExecutionError {
		t.Fatalf("expected execution_error from panic, got %s", result.Kind)
	}
	if !strings.Contains(result.Text, "kaboom") {
		t.Fatalf("expected panic message surfaced, got %q", result.Text)
	}

	// Isolation holds: the dispatcher still serves the next request.
	next := d.Dispatch(context.Background(), Request{
		Name:      "calculator",
		Arguments: map[string]any{"operation": "mul", "a": 6, "b": 7},
	})
	if !next.OK() || !strings.Contains(next.Text, "42") {
		t.Fatalf("expected working dispatch after panic, got %s: %q", next.Kind, next.Text)
	}
}
