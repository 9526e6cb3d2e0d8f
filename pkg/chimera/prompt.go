package chimera

import (
	"encoding/json"
	"strings"
)

const defaultBasePrompt = "You are Chimera, a helpful assistant running in a terminal. " +
	"Answer plainly and keep responses concise."

const directiveContract = `When a tool is needed, respond with ONLY this JSON object and nothing else:
{"tool_call": {"name": "<tool name>", "arguments": {<arguments matching the schema>}}}
When no tool is needed, respond with plain text.`

// SystemPrompt renders the system message: the base persona, the tool
// invocation contract and the manifest of available tools.
func SystemPrompt(base string, manifest []map[string]any) string {
	var sb strings.Builder
	if base == "" {
		base = defaultBasePrompt
	}
	sb.WriteString(base)
	if len(manifest) == 0 {
		return sb.String()
	}
	sb.WriteString("\n\n")
	sb.WriteString(directiveContract)
	sb.WriteString("\n\nAvailable tools:\n")
	for _, entry := range manifest {
		line, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		sb.WriteString("- ")
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
