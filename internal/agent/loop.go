// Package agent runs the single-prompt execution loop: one model turn, an
// optional fan-out over the requested tools, and an aggregated response.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ksfoundation/oneshot/internal/catalog"
	agentcfg "github.com/ksfoundation/oneshot/internal/config/agent"
	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
	"github.com/ksfoundation/oneshot/internal/tools"
)

// DefaultSystemPrompt is used when the configuration does not set one.
const DefaultSystemPrompt = "You are a helpful AI assistant with access to external tools via MCP."

// State names a phase of one Chat call. States only appear in logs.
type State string

const (
	StateBuilding         State = "building"
	StateAwaitingModel    State = "awaiting_model"
	StateNoToolsRequested State = "no_tools_requested"
	StateToolsRequested   State = "tools_requested"
	StateDispatching      State = "dispatching"
	StateAggregating      State = "aggregating"
	StateDone             State = "done"
)

// BackendSource resolves a model id to its provider and a ready backend.
type BackendSource interface {
	Resolve(modelID string) providers.ProviderSpec
	Backend(modelID string) (schema.Backend, error)
}

// CatalogSource produces the tool snapshot for one request.
type CatalogSource interface {
	Build(ctx context.Context) *catalog.Snapshot
}

// Loop answers one user message per Chat call. It holds no per-request state
// and is safe for concurrent use.
type Loop struct {
	settings   agentcfg.AgentConfig
	backends   BackendSource
	catalog    CatalogSource
	dispatcher *tools.Dispatcher
	observers  []TurnObserver
}

// NewLoop wires a Loop. observers are notified after every Chat call.
func NewLoop(
	settings agentcfg.AgentConfig,
	backends BackendSource,
	catalog CatalogSource,
	dispatcher *tools.Dispatcher,
	observers ...TurnObserver,
) *Loop {
	return &Loop{
		settings:   settings,
		backends:   backends,
		catalog:    catalog,
		dispatcher: dispatcher,
		observers:  observers,
	}
}

// DefaultModel returns the model used when Chat gets an empty model id.
func (l *Loop) DefaultModel() string { return l.settings.Model }

func (l *Loop) systemPrompt() string {
	return llmutils.StringOrDefault(l.settings.SystemPrompt, DefaultSystemPrompt)
}

func (l *Loop) backendTimeout() time.Duration {
	if l.settings.BackendTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(l.settings.BackendTimeout) * time.Second
}

func (l *Loop) concurrency() int {
	if l.settings.DispatchConcurrency <= 0 {
		return 4
	}
	return l.settings.DispatchConcurrency
}

// Chat runs the loop for a single user message. The only errors returned are
// backend failures, which unwrap to schema.ErrBackendTimeout or
// schema.ErrBackendUnavailable. Tool failures are recorded in the response.
func (l *Loop) Chat(ctx context.Context, userMessage, modelID string) (schema.AgentResponse, error) {
	if modelID == "" {
		modelID = l.settings.Model
	}
	spec := l.backends.Resolve(modelID)
	turn := Turn{
		Model:    modelID,
		Provider: spec.Name,
		Kind:     spec.Kind,
		Message:  userMessage,
		Started:  time.Now(),
	}

	resp, err := l.run(ctx, &turn)

	turn.Response = resp
	turn.Err = err
	turn.Elapsed = time.Since(turn.Started)
	for _, o := range l.observers {
		o.ObserveTurn(ctx, turn)
	}
	return resp, err
}

func (l *Loop) run(ctx context.Context, turn *Turn) (schema.AgentResponse, error) {
	log := slog.With("model", turn.Model, "provider", turn.Provider)
	log.Debug("agent: state", "state", StateBuilding)

	backend, err := l.backends.Backend(turn.Model)
	if err != nil {
		log.Error("agent: backend unavailable", "err", err)
		return schema.AgentResponse{}, err
	}
	turn.Kind = backend.Kind()

	req := schema.CompletionRequest{
		Model:        turn.Model,
		SystemPrompt: l.systemPrompt(),
		UserMessage:  turn.Message,
		MaxTokens:    l.settings.MaxTokens,
		Temperature:  l.settings.Temperature,
	}
	var snap *catalog.Snapshot
	if turn.Kind.SupportsTools() {
		snap = l.catalog.Build(ctx)
		req.Tools = snap.Descriptors()
	}

	log.Debug("agent: state", "state", StateAwaitingModel, "backend", turn.Kind, "tools", len(req.Tools))
	completion, err := l.complete(ctx, turn.Provider, backend, req)
	if err != nil {
		log.Error("agent: model call failed", "err", err)
		return schema.AgentResponse{}, err
	}

	var calls []schema.ToolInvocationRequest
	switch m := completion.(type) {
	case schema.LocalMessage:
		log.Debug("agent: state", "state", StateNoToolsRequested)
		return schema.AgentResponse{Content: m.Content, ToolCalls: []schema.ToolInvocationResult{}}, nil
	case schema.HostedMessage:
		calls = m.ToolCalls
	}

	if len(calls) == 0 {
		log.Debug("agent: state", "state", StateNoToolsRequested)
		return schema.AgentResponse{Content: completion.Text(), ToolCalls: []schema.ToolInvocationResult{}}, nil
	}

	log.Info("agent: tools requested", "state", StateToolsRequested, "calls", llmutils.ToolHint(calls))
	log.Debug("agent: state", "state", StateDispatching, "count", len(calls))
	results := l.dispatch(ctx, snap, calls)

	log.Debug("agent: state", "state", StateAggregating)
	resp := schema.AgentResponse{
		Content:   Aggregate(completion.Text(), results),
		ToolCalls: results,
	}
	log.Debug("agent: state", "state", StateDone)
	return resp, nil
}

// complete calls the backend under the configured ceiling. Any error comes
// back as a *schema.BackendError.
func (l *Loop) complete(ctx context.Context, provider string, backend schema.Backend, req schema.CompletionRequest) (schema.Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.backendTimeout())
	defer cancel()

	completion, err := backend.Complete(callCtx, req)
	if err == nil && completion == nil {
		err = errors.New("empty completion")
	}
	if err == nil {
		return completion, nil
	}

	var berr *schema.BackendError
	if errors.As(err, &berr) {
		return nil, berr
	}
	kind := schema.ErrBackendUnavailable
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		kind = schema.ErrBackendTimeout
	}
	return nil, &schema.BackendError{Provider: provider, Kind: kind, Err: err}
}

// dispatch runs every call with bounded concurrency. Results keep the order
// of calls.
func (l *Loop) dispatch(ctx context.Context, snap *catalog.Snapshot, calls []schema.ToolInvocationRequest) []schema.ToolInvocationResult {
	results := make([]schema.ToolInvocationResult, len(calls))

	var g errgroup.Group
	g.SetLimit(l.concurrency())
	for i, call := range calls {
		g.Go(func() error {
			results[i] = l.dispatcher.Dispatch(ctx, snap, call)
			if !results[i].Succeeded() {
				slog.Warn("agent: tool call failed",
					"tool", call.Name, "outcome", results[i].Outcome, "err", results[i].Error)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
