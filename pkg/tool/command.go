package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandHandler adapts an external executable into a tool handler. The
// validated argument object is written to the process as a JSON document on
// stdin; trimmed stdout becomes the tool result. A non-zero exit is an
// execution failure carrying stderr for context.
func CommandHandler(argv []string, timeout time.Duration) Handler {
	argv = append([]string(nil), argv...)
	return func(ctx context.Context, args map[string]any) (string, error) {
		if len(argv) == 0 {
			return "", fmt.Errorf("empty command")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		payload, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("encode arguments: %w", err)
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdin = bytes.NewReader(payload)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return "", fmt.Errorf("command failed: %s", msg)
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}
