package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// Session is an open connection to one external tool provider.
// Every operation after Close fails with schema.ErrSessionClosed.
type Session struct {
	name string
	spec LaunchSpec

	mu     sync.RWMutex
	cs     *sdk.ClientSession
	tools  []schema.ToolDescriptor
	closed bool
}

// ToolResult is the decoded outcome of a provider tool call.
type ToolResult struct {
	// Text is the joined text content of the result.
	Text string
	// Structured is the provider's structured content, if any.
	Structured any
}

// Name returns the provider name the session was registered under.
func (s *Session) Name() string { return s.name }

// CachedTools returns the last successfully listed tools.
func (s *Session) CachedTools() []schema.ToolDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]schema.ToolDescriptor(nil), s.tools...)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// ListTools fetches the provider's tool list, following pagination cursors.
// The result replaces the cached list.
func (s *Session) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, schema.ErrSessionClosed
	}
	cs := s.cs
	s.mu.RUnlock()

	var out []schema.ToolDescriptor
	cursor := ""
	for {
		res, err := cs.ListTools(ctx, &sdk.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("list tools %s: %w", s.name, err)
		}
		for _, t := range res.Tools {
			if t == nil || t.Name == "" {
				continue
			}
			params, err := schema.SchemaFromAny(t.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("tool %s/%s input schema: %w", s.name, t.Name, err)
			}
			out = append(out, schema.ToolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
				Provider:    s.name,
			})
		}
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}

	s.mu.Lock()
	if !s.closed {
		s.tools = out
	}
	s.mu.Unlock()
	return out, nil
}

// CallTool invokes tool with args. A result flagged isError is returned as an error.
func (s *Session) CallTool(ctx context.Context, tool string, args map[string]any) (*ToolResult, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, &schema.ToolCallError{Provider: s.name, Tool: tool, Err: schema.ErrSessionClosed}
	}
	cs := s.cs
	s.mu.RUnlock()

	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return nil, &schema.ToolCallError{Provider: s.name, Tool: tool, Err: err}
	}

	out := &ToolResult{Text: joinContent(res.Content), Structured: res.StructuredContent}
	if res.IsError {
		msg := out.Text
		if msg == "" {
			msg = "tool reported an error"
		}
		return out, &schema.ToolCallError{Provider: s.name, Tool: tool, Err: fmt.Errorf("%s", msg)}
	}
	return out, nil
}

// Ping checks the provider is still responsive.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return schema.ErrSessionClosed
	}
	cs := s.cs
	s.mu.RUnlock()
	return cs.Ping(ctx, nil)
}

// Close ends the session and stops the provider. Calling Close twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.tools = nil
	return s.cs.Close()
}

func joinContent(content []sdk.Content) string {
	var parts []string
	for _, c := range content {
		switch v := c.(type) {
		case *sdk.TextContent:
			parts = append(parts, v.Text)
		default:
			if b, err := json.Marshal(v); err == nil {
				parts = append(parts, string(b))
			}
		}
	}
	return strings.Join(parts, "\n")
}
