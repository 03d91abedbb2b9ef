package schema

import "context"

// BackendKind classifies which model family handles a request.
type BackendKind int

const (
	// HostedToolCapable backends accept a tool catalog and may return tool calls.
	HostedToolCapable BackendKind = iota
	// LocalKeyless backends receive the raw conversation and return text only.
	LocalKeyless
)

func (k BackendKind) String() string {
	switch k {
	case HostedToolCapable:
		return "hosted"
	case LocalKeyless:
		return "local"
	}
	return "unknown"
}

// SupportsTools reports whether structured tool calling is available.
func (k BackendKind) SupportsTools() bool { return k == HostedToolCapable }

// CompletionRequest is everything a backend needs for one turn.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserMessage  string
	Tools        []ToolDescriptor
	MaxTokens    int
	Temperature  float64
}

// Completion is the backend reply. It is either a HostedMessage or a
// LocalMessage; no other implementations exist.
type Completion interface {
	completion()
	// Text returns the free-text part of the reply.
	Text() string
}

// HostedMessage is the reply from a tool-capable hosted backend.
type HostedMessage struct {
	Content   string
	ToolCalls []ToolInvocationRequest
}

func (HostedMessage) completion()    {}
func (m HostedMessage) Text() string { return m.Content }

// LocalMessage is the reply from a local keyless backend. It never carries
// tool calls.
type LocalMessage struct {
	Content string
}

func (LocalMessage) completion()    {}
func (m LocalMessage) Text() string { return m.Content }

// Backend is a language-model backend.
type Backend interface {
	Kind() BackendKind
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
