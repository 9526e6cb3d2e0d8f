package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/harunnryd/chimera/pkg/keypool"
)

type stubEngine struct {
	inputs  []string
	cleared bool
}

func (s *stubEngine) ProcessInput(_ context.Context, input string) (string, error) {
	s.inputs = append(s.inputs, input)
	return "echo: " + input, nil
}

func (s *stubEngine) ClearHistory() { s.cleared = true }

func (s *stubEngine) ToolNames() []string { return []string{"calculator", "echo"} }

func (s *stubEngine) KeyStatus() keypool.PoolStatus {
	return keypool.PoolStatus{Total: 2, Eligible: 1, Cooling: 1}
}

func runSession(t *testing.T, script string) (*stubEngine, string) {
	t.Helper()
	engine := &stubEngine{}
	var out bytes.Buffer
	repl := NewREPL(engine, nil, strings.NewReader(script), &out)
	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repl.State() != StateStopped {
		t.Fatalf("expected stopped state, got %s", repl.State())
	}
	return engine, out.String()
}

func TestREPLRoutesConversation(t *testing.T) {
	engine, out := runSession(t, "hello there\nexit\n")
	if len(engine.inputs) != 1 || engine.inputs[0] != "hello there" {
		t.Fatalf("unexpected inputs %v", engine.inputs)
	}
	if !strings.Contains(out, "echo: hello there") {
		t.Fatalf("reply missing from output: %q", out)
	}
}

func TestREPLCommandsDoNotReachEngine(t *testing.T) {
	engine, out := runSession(t, "help\ntools\nkeys\nclear\nexit\n")
	if len(engine.inputs) != 0 {
		t.Fatalf("commands leaked to the engine: %v", engine.inputs)
	}
	if !engine.cleared {
		t.Fatalf("clear command did not clear history")
	}
	for _, want := range []string{"commands:", "calculator", "2 total", "history cleared", "bye"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestREPLSkipsBlankLines(t *testing.T) {
	engine, _ := runSession(t, "\n   \nexit\n")
	if len(engine.inputs) != 0 {
		t.Fatalf("blank lines should be skipped, got %v", engine.inputs)
	}
}

func TestREPLStopsOnEOF(t *testing.T) {
	_, out := runSession(t, "hi")
	if !strings.Contains(out, "bye") {
		t.Fatalf("expected clean shutdown on EOF: %q", out)
	}
}

func TestREPLRejectsDoubleStart(t *testing.T) {
	engine := &stubEngine{}
	var out bytes.Buffer
	repl := NewREPL(engine, nil, strings.NewReader("exit\n"), &out)
	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := repl.Run(context.Background()); err == nil {
		t.Fatalf("expected second Run to fail")
	}
}
