// Package catalog assembles the tool catalog advertised to the model.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// ExternalLister lists tools from external providers. The returned error may
// accompany a partial list.
type ExternalLister interface {
	ListAllTools(ctx context.Context) ([]schema.ToolDescriptor, error)
}

// Catalog merges externally discovered tools with the fixed first-party set.
type Catalog struct {
	external ExternalLister
	fixed    []schema.ToolDescriptor
}

// New returns a Catalog. external may be nil.
func New(external ExternalLister, fixed []schema.ToolDescriptor) *Catalog {
	return &Catalog{
		external: external,
		fixed:    append([]schema.ToolDescriptor(nil), fixed...),
	}
}

// Build returns a snapshot: external tools first (provider registration order),
// then the fixed tools in declaration order. A failing external registry is
// logged and whatever it returned is still used.
func (c *Catalog) Build(ctx context.Context) *Snapshot {
	var external []schema.ToolDescriptor
	if c.external != nil {
		tools, err := c.external.ListAllTools(ctx)
		if err != nil {
			slog.Warn("catalog: external tools incomplete",
				"err", fmt.Errorf("%w: %v", schema.ErrCatalogBuild, err),
				"retrieved", len(tools))
		}
		external = tools
	}

	snap := &Snapshot{index: make(map[string]int, len(external)+len(c.fixed))}
	for _, group := range [][]schema.ToolDescriptor{external, c.fixed} {
		for _, d := range group {
			snap.add(d)
		}
	}
	return snap
}

// Snapshot is an immutable, ordered set of descriptors with unique names.
type Snapshot struct {
	descriptors []schema.ToolDescriptor
	index       map[string]int
}

func (s *Snapshot) add(d schema.ToolDescriptor) {
	if i, dup := s.index[d.Name]; dup {
		slog.Warn("catalog: tool name collision, keeping first",
			"tool", d.Name,
			"kept", sourceName(s.descriptors[i]),
			"dropped", sourceName(d))
		return
	}
	s.index[d.Name] = len(s.descriptors)
	s.descriptors = append(s.descriptors, d)
}

func sourceName(d schema.ToolDescriptor) string {
	if d.Provider == "" {
		return "builtin"
	}
	return d.Provider
}

// Descriptors returns a copy of the ordered descriptors.
func (s *Snapshot) Descriptors() []schema.ToolDescriptor {
	return append([]schema.ToolDescriptor(nil), s.descriptors...)
}

// Lookup returns the descriptor registered under name.
func (s *Snapshot) Lookup(name string) (schema.ToolDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return schema.ToolDescriptor{}, false
	}
	return s.descriptors[i], true
}

// Len returns the number of descriptors.
func (s *Snapshot) Len() int { return len(s.descriptors) }

// Names returns the descriptor names in order.
func (s *Snapshot) Names() []string {
	out := make([]string, len(s.descriptors))
	for i, d := range s.descriptors {
		out[i] = d.Name
	}
	return out
}
