package chimera

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/harunnryd/chimera/pkg/dispatch"
	"github.com/harunnryd/chimera/pkg/llm"
)

type directiveCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type directiveEnvelope struct {
	ToolCall *directiveCall `json:"tool_call"`
}

// ExtractInvocation turns a model response into a dispatch request, if the
// response asked for one. Provider-native tool calls win over a JSON
// directive embedded in the text; only the first call of a batch is taken
// because the dispatcher executes at most one tool per turn.
func ExtractInvocation(resp llm.Response) (dispatch.Request, bool) {
	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		return dispatch.Request{ID: id, Name: call.Name, Arguments: call.Arguments}, true
	}
	return parseDirective(resp.Text)
}

// parseDirective looks for a {"tool_call": {...}} envelope, first as the
// whole trimmed text, then between the outermost braces for models that wrap
// the JSON in prose.
func parseDirective(text string) (dispatch.Request, bool) {
	trimmed := strings.TrimSpace(text)
	if env, ok := decodeEnvelope(trimmed); ok {
		return requestFrom(env), true
	}
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		if env, ok := decodeEnvelope(trimmed[start : end+1]); ok {
			return requestFrom(env), true
		}
	}
	return dispatch.Request{}, false
}

func decodeEnvelope(candidate string) (directiveEnvelope, bool) {
	var env directiveEnvelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		return directiveEnvelope{}, false
	}
	if env.ToolCall == nil {
		return directiveEnvelope{}, false
	}
	return env, true
}

func requestFrom(env directiveEnvelope) dispatch.Request {
	id := env.ToolCall.ID
	if id == "" {
		id = uuid.NewString()
	}
	args := env.ToolCall.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return dispatch.Request{ID: id, Name: env.ToolCall.Name, Arguments: args}
}
