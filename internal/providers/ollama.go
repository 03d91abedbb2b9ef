package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// OllamaBackend is the local keyless backend. It never receives tools.
type OllamaBackend struct {
	client *api.Client
	model  string
}

// NewOllamaBackend returns a backend for the Ollama server at base. model is
// the local model name sent upstream regardless of the requested id.
func NewOllamaBackend(base string, model string, httpClient *http.Client) (*OllamaBackend, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base %q: %w", base, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaBackend{client: api.NewClient(u, httpClient), model: model}, nil
}

func (b *OllamaBackend) Kind() schema.BackendKind { return schema.LocalKeyless }

func (b *OllamaBackend) Complete(ctx context.Context, req schema.CompletionRequest) (schema.Completion, error) {
	var messages []api.Message
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.UserMessage})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   &stream,
	}

	var out schema.LocalMessage
	err := b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.Content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, classifyError("ollama", err)
	}
	return out, nil
}
