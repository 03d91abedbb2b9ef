package providers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// OpenAIBackend talks to OpenAI and every OpenAI-compatible endpoint
// (Gemini, Groq, Mistral) through the official client.
type OpenAIBackend struct {
	name   string
	client openai.Client
}

// OpenAIParams configures an OpenAIBackend.
type OpenAIParams struct {
	Name         string // provider name used in errors
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
}

// NewOpenAIBackend constructs a backend. Retries are disabled; the loop owns
// the deadline.
func NewOpenAIBackend(p OpenAIParams) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithMaxRetries(0),
	}
	if p.APIBase != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(p.APIBase)))
	}
	for k, v := range p.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	name := p.Name
	if name == "" {
		name = "openai"
	}
	return &OpenAIBackend{name: name, client: openai.NewClient(opts...)}
}

func (b *OpenAIBackend) Kind() schema.BackendKind { return schema.HostedToolCapable }

func (b *OpenAIBackend) Complete(ctx context.Context, req schema.CompletionRequest) (schema.Completion, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserMessage))

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if tools := convertOpenAITools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(b.name, err)
	}

	out := schema.HostedMessage{}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	msg := resp.Choices[0].Message
	out.Content = msg.Content
	for _, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, schema.ToolInvocationRequest{
			ID:           id,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func convertOpenAITools(tools []schema.ToolDescriptor) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		result[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.ParametersMap()),
			},
		}
	}
	return result
}

// withTrailingSlash keeps path segments such as /v1 when the SDK resolves
// relative endpoints against the base.
func withTrailingSlash(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
