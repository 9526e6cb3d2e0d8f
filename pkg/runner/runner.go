// Package runner hosts the interactive session: lifecycle state machine,
// startup banner and the read-eval-print loop over the engine.
package runner

import (
	"bytes"
	"context"
	"io"

	"github.com/dimiro1/banner"
)

type State int32

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks lets the caller observe lifecycle edges without subclassing.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

const Version = "dev"

func PrintBanner(w io.Writer) {
	tpl := "{{ .Title \"CHIMERA\" \"\" 0 }}\nVersion: " + Version + "\nType 'help' for commands.\n\n"
	banner.Init(w, true, false, bytes.NewBufferString(tpl))
}
