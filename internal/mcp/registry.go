// Package mcp manages sessions with external MCP tool providers.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksfoundation/oneshot/internal/schema"
)

const clientVersion = "0.1.0"

// Registry owns every provider session. Providers are listed in registration order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	client *sdk.Client
	dial   Dialer
}

// Option customises a Registry.
type Option func(*Registry)

// WithDialer replaces the transport factory.
func WithDialer(d Dialer) Option {
	return func(r *Registry) { r.dial = d }
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		client:   sdk.NewClient(&sdk.Implementation{Name: "oneshot", Version: clientVersion}, nil),
		dial:     DefaultDialer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider starts the provider and completes the initialize handshake.
// Registering a name twice replaces the previous session.
func (r *Registry) RegisterProvider(ctx context.Context, name string, spec LaunchSpec) error {
	transport, err := r.dial(ctx, name, spec)
	if err != nil {
		var ce *schema.ConnectionError
		if errors.As(err, &ce) {
			return err
		}
		return &schema.ConnectionError{Provider: name, Err: err}
	}

	cs, err := r.client.Connect(ctx, transport, nil)
	if err != nil {
		return &schema.ConnectionError{
			Provider: name,
			Err:      fmt.Errorf("%w: %v", schema.ErrHandshake, err),
		}
	}

	sess := &Session{name: name, spec: spec, cs: cs}

	r.mu.Lock()
	old, exists := r.sessions[name]
	r.sessions[name] = sess
	if !exists {
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	slog.Info("mcp: provider connected", "provider", name)
	return nil
}

// Session returns the named session.
func (r *Registry) Session(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Providers returns registered provider names in registration order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sessions[name])
	}
	return out
}

// ListAllTools lists every provider's tools in registration order. Providers
// that fail are skipped; their errors are joined into the returned error
// alongside whatever tools were retrieved.
func (r *Registry) ListAllTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	var (
		out  []schema.ToolDescriptor
		errs []error
	)
	for _, s := range r.snapshot() {
		tools, err := s.ListTools(ctx)
		if err != nil {
			slog.Warn("mcp: list tools failed", "provider", s.name, "err", err)
			errs = append(errs, fmt.Errorf("provider %s: %w", s.name, err))
			continue
		}
		out = append(out, tools...)
	}
	return out, errors.Join(errs...)
}

// CallTool invokes tool on the named provider.
func (r *Registry) CallTool(ctx context.Context, provider, tool string, args map[string]any) (*ToolResult, error) {
	s, ok := r.Session(provider)
	if !ok {
		return nil, &schema.ToolCallError{Provider: provider, Tool: tool, Err: schema.ErrProviderNotFound}
	}
	return s.CallTool(ctx, tool, args)
}

// PingAll pings every provider and returns the failures keyed by provider.
func (r *Registry) PingAll(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for _, s := range r.snapshot() {
		if err := s.Ping(ctx); err != nil {
			failures[s.name] = err
		}
	}
	return failures
}

// Unregister closes and removes the named provider.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	s, ok := r.sessions[name]
	if ok {
		delete(r.sessions, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return schema.ErrProviderNotFound
	}
	slog.Info("mcp: provider removed", "provider", name)
	return s.Close()
}

// Reconcile brings the registry in line with specs: providers missing from
// specs are removed, changed ones restarted and new ones registered in sorted
// name order. Registration failures are joined and returned; the rest proceed.
func (r *Registry) Reconcile(ctx context.Context, specs map[string]LaunchSpec) error {
	var errs []error

	for _, s := range r.snapshot() {
		want, keep := specs[s.name]
		if keep && sameSpec(want, s.spec) {
			continue
		}
		if err := r.Unregister(s.name); err != nil && !errors.Is(err, schema.ErrProviderNotFound) {
			slog.Warn("mcp: close provider failed", "provider", s.name, "err", err)
		}
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := r.Session(name); ok {
			continue
		}
		if err := r.RegisterProvider(ctx, name, specs[name]); err != nil {
			slog.Error("mcp: provider connect failed", "provider", name, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sameSpec treats nil and empty args, env and headers as equal.
func sameSpec(a, b LaunchSpec) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// Shutdown closes every session. It is idempotent and best-effort.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.order))
	for _, name := range r.order {
		sessions = append(sessions, r.sessions[name])
	}
	r.sessions = make(map[string]*Session)
	r.order = nil
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			slog.Debug("mcp: close provider", "provider", s.name, "err", err)
		}
	}
}
