package providers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/ksfoundation/oneshot/internal/schema"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicBackend talks to the Anthropic Messages API.
type AnthropicBackend struct {
	client anthropic.Client
}

// AnthropicParams configures an AnthropicBackend.
type AnthropicParams struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
}

func NewAnthropicBackend(p AnthropicParams) *AnthropicBackend {
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
	return &AnthropicBackend{client: anthropic.NewClient(opts...)}
}

func (b *AnthropicBackend) Kind() schema.BackendKind { return schema.HostedToolCapable }

func (b *AnthropicBackend) Complete(ctx context.Context, req schema.CompletionRequest) (schema.Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if tools := convertAnthropicTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError("anthropic", err)
	}

	var (
		text strings.Builder
		out  schema.HostedMessage
	)
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			id := v.ID
			if id == "" {
				id = "toolu_" + uuid.NewString()
			}
			args := string(v.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, schema.ToolInvocationRequest{
				ID:           id,
				Name:         v.Name,
				RawArguments: args,
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

func convertAnthropicTools(tools []schema.ToolDescriptor) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var inputSchema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(t.ParametersJSON(), &inputSchema)
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return result
}
