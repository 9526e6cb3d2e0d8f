// Package tools holds the built-in tool specs shipped with the agent.
// Discovered manifest tools live next to these in the same registry.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/harunnryd/chimera/pkg/tool"
)

// Builtin returns every built-in spec. The tools directory is needed by
// create_tool, which writes new manifests there.
func Builtin(toolsDir string) []tool.Spec {
	return []tool.Spec{
		Echo(),
		SystemInfo(),
		Calculator(),
		CreateTool(toolsDir),
	}
}

func Echo() tool.Spec {
	return tool.New("echo", "Echo the provided text back to the user.").
		String("text", "text to echo", true).
		Boolean("uppercase", "return the text uppercased", false).WithDefault(false).
		Handler(func(_ context.Context, args map[string]any) (string, error) {
			text := args["text"].(string)
			if args["uppercase"].(bool) {
				text = strings.ToUpper(text)
			}
			return text, nil
		}).
		MustSpec()
}

func SystemInfo() tool.Spec {
	return tool.New("system_info", "Report the host platform: OS, architecture, CPU count, hostname and Go runtime.").
		Handler(func(context.Context, map[string]any) (string, error) {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			return fmt.Sprintf("os=%s arch=%s cpus=%d hostname=%s go=%s",
				runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), hostname, runtime.Version()), nil
		}).
		MustSpec()
}

type calculatorArgs struct {
	Operation string  `mapstructure:"operation"`
	A         float64 `mapstructure:"a"`
	B         float64 `mapstructure:"b"`
}

func Calculator() tool.Spec {
	return tool.New("calculator", "Perform basic arithmetic on two numbers.").
		String("operation", "one of add, sub, mul, div", true).
		Number("a", "left operand", true).
		Number("b", "right operand", true).
		Handler(func(_ context.Context, raw map[string]any) (string, error) {
			var args calculatorArgs
			if err := tool.DecodeArgs(raw, &args); err != nil {
				return "", err
			}
			var result float64
			switch args.Operation {
			case "add":
				result = args.A + args.B
			case "sub":
				result = args.A - args.B
			case "mul":
				result = args.A * args.B
			case "div":
				if args.B == 0 {
					return "", errors.New("division by zero")
				}
				result = args.A / args.B
			default:
				return "", fmt.Errorf("unsupported operation %q", args.Operation)
			}
			return strconv.FormatFloat(result, 'f', -1, 64), nil
		}).
		MustSpec()
}

// CreateTool writes a new command-tool manifest into the tools directory.
// The registry is immutable within a session, so the tool becomes available
// on the next start.
func CreateTool(toolsDir string) tool.Spec {
	return tool.New("create_tool", "Create a new command-backed tool manifest in the tools directory. It is loaded on the next start.").
		String("name", "tool name, lowercase identifier", true).
		String("description", "what the tool does", true).
		String("command", "the command line to run, arguments receive a JSON object on stdin", true).
		Handler(func(_ context.Context, args map[string]any) (string, error) {
			name := strings.TrimSpace(args["name"].(string))
			if !validToolName(name) {
				return "", fmt.Errorf("invalid tool name %q", name)
			}
			argv := strings.Fields(args["command"].(string))
			if len(argv) == 0 {
				return "", errors.New("command must not be empty")
			}
			if err := os.MkdirAll(toolsDir, 0o755); err != nil {
				return "", err
			}
			path := toolsDir + string(os.PathSeparator) + name + ".toml"
			if _, err := os.Stat(path); err == nil {
				return "", fmt.Errorf("tool manifest already exists: %s", path)
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "name = %q\n", name)
			fmt.Fprintf(&sb, "description = %q\n", args["description"].(string))
			sb.WriteString("command = [")
			for i, part := range argv {
				if i > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%q", part)
			}
			sb.WriteString("]\n")
			if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
				return "", err
			}
			return fmt.Sprintf("wrote %s; restart the agent to load it", path), nil
		}).
		MustSpec()
}

func validToolName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case r == '_' || r == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
