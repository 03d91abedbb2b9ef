package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksfoundation/oneshot/internal/mcp"
	"github.com/ksfoundation/oneshot/internal/schema"
)

type lookupMap map[string]schema.ToolDescriptor

func (m lookupMap) Lookup(name string) (schema.ToolDescriptor, bool) {
	d, ok := m[name]
	return d, ok
}

type fakeExternal struct {
	provider string
	tool     string
	args     map[string]any
	result   *mcp.ToolResult
	err      error
}

func (f *fakeExternal) CallTool(_ context.Context, provider, tool string, args map[string]any) (*mcp.ToolResult, error) {
	f.provider, f.tool, f.args = provider, tool, args
	return f.result, f.err
}

type recordedObservation struct {
	tool    string
	outcome schema.Outcome
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []recordedObservation
}

func (r *fakeRecorder) ObserveTool(tool string, outcome schema.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, recordedObservation{tool, outcome})
}

func newEchoDispatcher(t *testing.T, ext ExternalCaller, rec Recorder) *Dispatcher {
	t.Helper()
	table, err := NewTableBuilder().
		Register(echoDescriptor("echo"), echoHandler, echoFormat).
		Build()
	require.NoError(t, err)
	return NewDispatcher(table, ext, rec)
}

func TestDispatch_FirstParty(t *testing.T) {
	rec := &fakeRecorder{}
	d := newEchoDispatcher(t, nil, rec)

	res := d.Dispatch(context.Background(), nil, schema.ToolInvocationRequest{
		ID: "call_1", Name: "echo", RawArguments: `{"text":"hello"}`,
	})

	assert.Equal(t, schema.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "call_1", res.RequestID)
	assert.Equal(t, "echo", res.ToolName)
	assert.Equal(t, `{"text":"hello"}`, res.Arguments)
	assert.Equal(t, "hello", res.RawResult)
	assert.Equal(t, "echo: hello", res.DisplayText)
	assert.Empty(t, res.Error)
	assert.Equal(t, []recordedObservation{{"echo", schema.OutcomeSuccess}}, rec.obs)
}

func TestDispatch_MalformedArguments(t *testing.T) {
	d := newEchoDispatcher(t, nil, nil)

	res := d.Dispatch(context.Background(), nil, schema.ToolInvocationRequest{
		ID: "call_1", Name: "echo", RawArguments: `{"text":`,
	})
	assert.Equal(t, schema.OutcomeMalformedArguments, res.Outcome)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.DisplayText)

	res = d.Dispatch(context.Background(), nil, schema.ToolInvocationRequest{
		ID: "call_2", Name: "echo", RawArguments: `{}`,
	})
	assert.Equal(t, schema.OutcomeMalformedArguments, res.Outcome)
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := newEchoDispatcher(t, &fakeExternal{}, nil)

	res := d.Dispatch(context.Background(), lookupMap{}, schema.ToolInvocationRequest{
		ID: "call_1", Name: "nonexistent_tool", RawArguments: `{}`,
	})
	assert.Equal(t, schema.OutcomeUnknownTool, res.Outcome)
	assert.Contains(t, res.Error, "nonexistent_tool")
}

func TestDispatch_External(t *testing.T) {
	ext := &fakeExternal{result: &mcp.ToolResult{Text: "72F sunny"}}
	d := newEchoDispatcher(t, ext, nil)
	catalog := lookupMap{"weather": {Name: "weather", Provider: "wx"}}

	res := d.Dispatch(context.Background(), catalog, schema.ToolInvocationRequest{
		ID: "call_1", Name: "weather", RawArguments: `{"city":"SF"}`,
	})
	require.Equal(t, schema.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "72F sunny", res.DisplayText)
	assert.Equal(t, "72F sunny", res.RawResult)
	assert.Equal(t, "wx", ext.provider)
	assert.Equal(t, "weather", ext.tool)
	assert.Equal(t, map[string]any{"city": "SF"}, ext.args)
}

func TestDispatch_ExternalStructured(t *testing.T) {
	structured := map[string]any{"temp": float64(72)}
	ext := &fakeExternal{result: &mcp.ToolResult{Text: "72", Structured: structured}}
	d := newEchoDispatcher(t, ext, nil)
	catalog := lookupMap{"weather": {Name: "weather", Provider: "wx"}}

	res := d.Dispatch(context.Background(), catalog, schema.ToolInvocationRequest{ID: "c", Name: "weather"})
	assert.Equal(t, structured, res.RawResult)
	assert.Equal(t, "72", res.DisplayText)
}

func TestDispatch_ExternalFailure(t *testing.T) {
	ext := &fakeExternal{err: &schema.ToolCallError{Provider: "wx", Tool: "weather", Err: schema.ErrSessionClosed}}
	d := newEchoDispatcher(t, ext, nil)
	catalog := lookupMap{"weather": {Name: "weather", Provider: "wx"}}

	res := d.Dispatch(context.Background(), catalog, schema.ToolInvocationRequest{ID: "c", Name: "weather"})
	assert.Equal(t, schema.OutcomeHandlerError, res.Outcome)
	assert.Contains(t, res.Error, "session closed")
}

func TestDispatch_HandlerError(t *testing.T) {
	table, err := NewTableBuilder().
		Register(schema.ToolDescriptor{Name: "fails"}, func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("backend exploded")
		}, nil).
		Build()
	require.NoError(t, err)
	d := NewDispatcher(table, nil, nil)

	res := d.Dispatch(context.Background(), nil, schema.ToolInvocationRequest{ID: "c", Name: "fails"})
	assert.Equal(t, schema.OutcomeHandlerError, res.Outcome)
	assert.Contains(t, res.Error, "backend exploded")
}

func TestDispatch_FirstPartyShadowsExternal(t *testing.T) {
	ext := &fakeExternal{result: &mcp.ToolResult{Text: "external"}}
	d := newEchoDispatcher(t, ext, nil)
	catalog := lookupMap{"echo": {Name: "echo", Provider: "other"}}

	res := d.Dispatch(context.Background(), catalog, schema.ToolInvocationRequest{
		ID: "c", Name: "echo", RawArguments: `{"text":"local"}`,
	})
	assert.Equal(t, "echo: local", res.DisplayText)
	assert.Empty(t, ext.tool)
}
