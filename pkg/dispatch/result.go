package dispatch

// ResultKind tags the outcome of one dispatch.
type ResultKind string

const (
	ResultSuccess        ResultKind = "success"
	ResultUnknownTool    ResultKind = "unknown_tool"
	ResultInvalidArgs    ResultKind = "invalid_args"
	ResultExecutionError ResultKind = "execution_error"
)

// Request is the ephemeral invocation intent extracted from a model
// response: tool name plus the raw, untyped argument mapping.
type Request struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Result is the tagged outcome of a dispatch. It is built only through the
// constructors below so it is never partially filled.
type Result struct {
	Kind ResultKind
	Text string
}

func (r Result) OK() bool { return r.Kind == ResultSuccess }

func success(text string) Result {
	return Result{Kind: ResultSuccess, Text: text}
}

func failure(kind ResultKind, message string) Result {
	return Result{Kind: kind, Text: message}
}
