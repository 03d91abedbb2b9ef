package agent

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksfoundation/oneshot/internal/catalog"
	"github.com/ksfoundation/oneshot/internal/cloud"
	"github.com/ksfoundation/oneshot/internal/cluster"
	"github.com/ksfoundation/oneshot/internal/commerce"
	agentcfg "github.com/ksfoundation/oneshot/internal/config/agent"
	"github.com/ksfoundation/oneshot/internal/config/tool"
	"github.com/ksfoundation/oneshot/internal/domains"
	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/intel"
	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/tools"
	"github.com/ksfoundation/oneshot/internal/workflow"
)

type fakeBackend struct {
	kind       schema.BackendKind
	completion schema.Completion
	err        error
	block      bool

	mu  sync.Mutex
	req schema.CompletionRequest
}

func (b *fakeBackend) Kind() schema.BackendKind { return b.kind }

func (b *fakeBackend) Complete(ctx context.Context, req schema.CompletionRequest) (schema.Completion, error) {
	b.mu.Lock()
	b.req = req
	b.mu.Unlock()
	if b.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.completion, b.err
}

type fakeSource struct {
	backend *fakeBackend
	err     error
}

func (s fakeSource) Resolve(modelID string) providers.ProviderSpec {
	return providers.NewRouter().Resolve(modelID)
}

func (s fakeSource) Backend(string) (schema.Backend, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.backend, nil
}

type noopRunner struct{}

func (noopRunner) Run(context.Context, string, ...string) (string, error) {
	return "", errors.New("no container runtime")
}

func newTestLoop(t *testing.T, backend *fakeBackend, observers ...TurnObserver) *Loop {
	t.Helper()
	wf := tool.DefaultWorkflowConfig()
	wf.Dir = t.TempDir()
	wf.Interpreter = "sh"
	wf.Timeout = 5

	table, err := tools.NewBuiltinTable(tools.Services{
		Hosting:  hosting.NewProvisioner(tool.DefaultHostingConfig(), noopRunner{}),
		Domains:  domains.NewChecker(),
		Cluster:  cluster.NewBootstrapper(cluster.NewSSHRunner(tool.DefaultClusterConfig())),
		Cloud:    cloud.NewManager(tool.DefaultCloudConfig()),
		Intel:    intel.NewService(),
		Commerce: commerce.NewSearcher(commerce.DefaultStores()...),
		Workflow: workflow.NewExecutor(wf),
	})
	require.NoError(t, err)

	settings := agentcfg.DefaultAgentConfig()
	settings.BackendTimeout = 1
	return NewLoop(
		settings,
		fakeSource{backend: backend},
		catalog.New(nil, table.Descriptors()),
		tools.NewDispatcher(table, nil, nil),
		observers...,
	)
}

func hosted(content string, calls ...schema.ToolInvocationRequest) *fakeBackend {
	return &fakeBackend{
		kind:       schema.HostedToolCapable,
		completion: schema.HostedMessage{Content: content, ToolCalls: calls},
	}
}

func TestChat_AdvertisesFixedToolsWithoutProviders(t *testing.T) {
	backend := hosted("hi")
	loop := newTestLoop(t, backend)

	_, err := loop.Chat(context.Background(), "hello", "gpt-4-turbo-preview")
	require.NoError(t, err)

	var names []string
	for _, d := range backend.req.Tools {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"provision_hosting",
		"check_domain_availability",
		"deploy_k3s_cluster",
		"create_gcp_server",
		"search_nearby_business",
		"search_social_identity",
		"lookup_phone",
		"search_products",
		"generate_workflow",
	}, names)
	assert.Equal(t, DefaultSystemPrompt, backend.req.SystemPrompt)
	assert.Equal(t, "hello", backend.req.UserMessage)
}

func TestChat_NoToolsReturnsModelTextVerbatim(t *testing.T) {
	loop := newTestLoop(t, hosted("  Paris is the capital.\n"))

	resp, err := loop.Chat(context.Background(), "capital of France?", "gpt-4-turbo-preview")
	require.NoError(t, err)
	assert.Equal(t, "  Paris is the capital.\n", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	assert.NotNil(t, resp.ToolCalls)
}

func TestChat_DomainCheck(t *testing.T) {
	loop := newTestLoop(t, hosted("", schema.ToolInvocationRequest{
		ID: "call_1", Name: "check_domain_availability", RawArguments: `{"keyword":"acme"}`,
	}))

	resp, err := loop.Chat(context.Background(), "Is acme.com available?", "gpt-4-turbo-preview")
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	call := resp.ToolCalls[0]
	assert.Equal(t, "call_1", call.RequestID)
	assert.Equal(t, "check_domain_availability", call.ToolName)
	assert.Equal(t, schema.OutcomeSuccess, call.Outcome)
	assert.Equal(t, "🔎 Domain Check: Available: acme.com, acme.org, acme.edu", call.DisplayText)
	assert.Equal(t, call.DisplayText, resp.Content)
}

func TestChat_UnknownToolStillAnswers(t *testing.T) {
	loop := newTestLoop(t, hosted("Let me try.", schema.ToolInvocationRequest{
		ID: "call_1", Name: "teleport_user", RawArguments: `{}`,
	}))

	resp, err := loop.Chat(context.Background(), "teleport me", "gpt-4-turbo-preview")
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, schema.OutcomeUnknownTool, resp.ToolCalls[0].Outcome)
	assert.Equal(t, "Let me try.", resp.Content)
}

func TestChat_PlaceholderWhenNothingSucceeds(t *testing.T) {
	loop := newTestLoop(t, hosted("", schema.ToolInvocationRequest{
		ID: "call_1", Name: "check_domain_availability", RawArguments: `{"keyword":`,
	}))

	resp, err := loop.Chat(context.Background(), "check", "gpt-4-turbo-preview")
	require.NoError(t, err)
	assert.Equal(t, Placeholder, resp.Content)
	assert.Equal(t, schema.OutcomeMalformedArguments, resp.ToolCalls[0].Outcome)
}

func TestChat_MixedResultsKeepRequestOrder(t *testing.T) {
	loop := newTestLoop(t, hosted("ignored",
		schema.ToolInvocationRequest{ID: "1", Name: "lookup_phone", RawArguments: `{"phone_number":"+15550001111"}`},
		schema.ToolInvocationRequest{ID: "2", Name: "teleport_user", RawArguments: `{}`},
		schema.ToolInvocationRequest{ID: "3", Name: "check_domain_availability", RawArguments: `{"keyword":"acme"}`},
		schema.ToolInvocationRequest{ID: "4", Name: "search_social_identity", RawArguments: `{}`},
	))

	resp, err := loop.Chat(context.Background(), "do things", "gpt-4-turbo-preview")
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 4)
	for i, id := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, id, resp.ToolCalls[i].RequestID)
	}
	assert.Equal(t, schema.OutcomeSuccess, resp.ToolCalls[0].Outcome)
	assert.Equal(t, schema.OutcomeUnknownTool, resp.ToolCalls[1].Outcome)
	assert.Equal(t, schema.OutcomeSuccess, resp.ToolCalls[2].Outcome)
	assert.Equal(t, schema.OutcomeMalformedArguments, resp.ToolCalls[3].Outcome)

	want := resp.ToolCalls[0].DisplayText + "\n" + resp.ToolCalls[2].DisplayText
	assert.Equal(t, want, resp.Content)
}

// stagedTable registers one tool whose "first" call returns only after every
// other call has finished.
func stagedTable(t *testing.T, others int, finished *[]string) *tools.Table {
	t.Helper()
	var (
		mu   sync.Mutex
		rest sync.WaitGroup
	)
	rest.Add(others)
	desc := schema.ToolDescriptor{
		Name:        "staged",
		Description: "finishes in a fixed order",
		Parameters: &jsonschema.Schema{
			Type:       "object",
			Required:   []string{"step"},
			Properties: map[string]*jsonschema.Schema{"step": {Type: "string"}},
		},
	}
	handler := func(ctx context.Context, args map[string]any) (any, error) {
		step := args["step"].(string)
		if step == "first" {
			done := make(chan struct{})
			go func() { rest.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				return nil, errors.New("later calls never finished")
			}
		} else {
			defer rest.Done()
		}
		mu.Lock()
		*finished = append(*finished, step)
		mu.Unlock()
		return step, nil
	}
	table, err := tools.NewTableBuilder().
		Register(desc, handler, func(_ map[string]any, result any) string { return "done " + result.(string) }).
		Build()
	require.NoError(t, err)
	return table
}

func TestChat_SlowFirstCallKeepsRequestOrder(t *testing.T) {
	var finished []string
	table := stagedTable(t, 2, &finished)
	backend := hosted("",
		schema.ToolInvocationRequest{ID: "1", Name: "staged", RawArguments: `{"step":"first"}`},
		schema.ToolInvocationRequest{ID: "2", Name: "staged", RawArguments: `{"step":"second"}`},
		schema.ToolInvocationRequest{ID: "3", Name: "staged", RawArguments: `{"step":"third"}`},
	)
	settings := agentcfg.DefaultAgentConfig()
	settings.DispatchConcurrency = 3
	loop := NewLoop(settings, fakeSource{backend: backend},
		catalog.New(nil, table.Descriptors()), tools.NewDispatcher(table, nil, nil))

	resp, err := loop.Chat(context.Background(), "go", "gpt-4-turbo-preview")
	require.NoError(t, err)

	require.Len(t, finished, 3)
	assert.Equal(t, "first", finished[2])

	require.Len(t, resp.ToolCalls, 3)
	for i, id := range []string{"1", "2", "3"} {
		assert.Equal(t, id, resp.ToolCalls[i].RequestID)
		assert.Equal(t, schema.OutcomeSuccess, resp.ToolCalls[i].Outcome)
	}
	assert.Equal(t, "done first\ndone second\ndone third", resp.Content)
}

func TestChat_WorkflowRuntimeError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	loop := newTestLoop(t, hosted("", schema.ToolInvocationRequest{
		ID:           "call_1",
		Name:         "generate_workflow",
		RawArguments: `{"task_name":"broken","python_code":"echo oops >&2\nexit 3\n"}`,
	}))

	resp, err := loop.Chat(context.Background(), "run something", "gpt-4-turbo-preview")
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	res, ok := resp.ToolCalls[0].RawResult.(workflow.Result)
	require.True(t, ok)
	assert.Equal(t, workflow.StatusRuntimeError, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", res.Output)
	assert.Contains(t, resp.Content, "finished (runtime_error)")
}

func TestChat_LocalBackendGetsNoTools(t *testing.T) {
	backend := &fakeBackend{
		kind:       schema.LocalKeyless,
		completion: schema.LocalMessage{Content: "<think>hmm</think>\nHello from llama"},
	}
	loop := newTestLoop(t, backend)

	resp, err := loop.Chat(context.Background(), "hi", "local-llm")
	require.NoError(t, err)
	assert.Empty(t, backend.req.Tools)
	assert.Equal(t, "<think>hmm</think>\nHello from llama", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestChat_BackendErrors(t *testing.T) {
	berr := &schema.BackendError{Provider: "openai", Kind: schema.ErrBackendUnavailable, Err: errors.New("503")}
	loop := newTestLoop(t, &fakeBackend{kind: schema.HostedToolCapable, err: berr})

	_, err := loop.Chat(context.Background(), "hi", "gpt-4-turbo-preview")
	assert.ErrorIs(t, err, schema.ErrBackendUnavailable)

	loop = newTestLoop(t, &fakeBackend{kind: schema.HostedToolCapable, err: errors.New("connection reset")})
	_, err = loop.Chat(context.Background(), "hi", "gpt-4-turbo-preview")
	assert.ErrorIs(t, err, schema.ErrBackendUnavailable)
}

func TestChat_BackendTimeout(t *testing.T) {
	loop := newTestLoop(t, &fakeBackend{kind: schema.HostedToolCapable, block: true})

	_, err := loop.Chat(context.Background(), "hi", "gpt-4-turbo-preview")
	assert.ErrorIs(t, err, schema.ErrBackendTimeout)
}

func TestChat_ObserversSeeEveryTurn(t *testing.T) {
	var turns []Turn
	obs := ObserverFunc(func(_ context.Context, turn Turn) { turns = append(turns, turn) })
	loop := newTestLoop(t, hosted("ok"), obs)

	_, err := loop.Chat(context.Background(), "hi", "")
	require.NoError(t, err)

	require.Len(t, turns, 1)
	assert.Equal(t, "gpt-4-turbo-preview", turns[0].Model)
	assert.Equal(t, "openai", turns[0].Provider)
	assert.Equal(t, "ok", turns[0].Response.Content)
	assert.NoError(t, turns[0].Err)
}

func TestAggregate(t *testing.T) {
	ok := func(text string) schema.ToolInvocationResult {
		return schema.ToolInvocationResult{Outcome: schema.OutcomeSuccess, DisplayText: text}
	}
	bad := schema.ToolInvocationResult{Outcome: schema.OutcomeHandlerError, DisplayText: "should not show"}

	assert.Equal(t, "a\nb", Aggregate("model", []schema.ToolInvocationResult{ok("a"), bad, ok("b")}))
	assert.Equal(t, "model", Aggregate("  model  ", []schema.ToolInvocationResult{bad}))
	assert.Equal(t, Placeholder, Aggregate("", []schema.ToolInvocationResult{bad}))
	assert.Equal(t, Placeholder, Aggregate("", nil))
}
