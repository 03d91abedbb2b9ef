package schema

// ToolInvocationRequest is one tool-call directive produced by the model.
type ToolInvocationRequest struct {
	ID           string
	Name         string
	RawArguments string
}

// Outcome tags how a single tool invocation ended.
type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeMalformedArguments Outcome = "malformed_arguments"
	OutcomeUnknownTool        Outcome = "unknown_tool"
	OutcomeHandlerError       Outcome = "handler_error"
)

// ToolInvocationResult records one attempted invocation. RawResult holds the
// handler's structured value; DisplayText is the human-readable summary line.
type ToolInvocationResult struct {
	RequestID   string  `json:"id"`
	ToolName    string  `json:"function"`
	Arguments   string  `json:"arguments"`
	RawResult   any     `json:"result,omitempty"`
	DisplayText string  `json:"display_text,omitempty"`
	Outcome     Outcome `json:"outcome"`
	Error       string  `json:"error,omitempty"`
}

// Succeeded reports whether the invocation produced a usable result.
func (r ToolInvocationResult) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// AgentResponse is the terminal artifact of one execution loop run.
type AgentResponse struct {
	Content   string                 `json:"content"`
	ToolCalls []ToolInvocationResult `json:"tool_calls"`
}
