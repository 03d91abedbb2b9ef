// Package tools holds the dispatch table of first-party tools and the
// dispatcher that routes model tool calls to it or to external providers.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// HandlerFunc executes a tool with decoded, validated arguments.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// FormatterFunc renders a handler result as one user-facing line.
type FormatterFunc func(args map[string]any, result any) string

type entry struct {
	desc    schema.ToolDescriptor
	handler HandlerFunc
	format  FormatterFunc
	check   *validator
}

// TableBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Table ready for use.
type TableBuilder struct {
	entries []entry
	index   map[string]int
	errs    []error
}

// NewTableBuilder returns a fresh TableBuilder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{index: make(map[string]int)}
}

// Register adds a tool and returns the builder, enabling chaining. A second
// registration under the same name is rejected at Build.
func (b *TableBuilder) Register(desc schema.ToolDescriptor, handler HandlerFunc, format FormatterFunc) *TableBuilder {
	if desc.Name == "" || handler == nil {
		b.errs = append(b.errs, fmt.Errorf("register tool %q: name and handler are required", desc.Name))
		return b
	}
	if _, dup := b.index[desc.Name]; dup {
		b.errs = append(b.errs, fmt.Errorf("register tool %q: already registered", desc.Name))
		return b
	}
	check, err := newValidator(desc)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.index[desc.Name] = len(b.entries)
	b.entries = append(b.entries, entry{desc: desc, handler: handler, format: format, check: check})
	return b
}

// Build produces an immutable Table from the accumulated tools.
func (b *TableBuilder) Build() (*Table, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	t := &Table{
		entries: append([]entry(nil), b.entries...),
		index:   make(map[string]int, len(b.index)),
	}
	for k, v := range b.index {
		t.index[k] = v
	}
	return t, nil
}

// Table maps tool names to handlers. It is read-only after Build.
type Table struct {
	entries []entry
	index   map[string]int
}

// Descriptors returns the registered descriptors in registration order.
func (t *Table) Descriptors() []schema.ToolDescriptor {
	out := make([]schema.ToolDescriptor, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.desc
	}
	return out
}

// Has reports whether name is registered.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Descriptor returns the descriptor registered under name.
func (t *Table) Descriptor(name string) (schema.ToolDescriptor, bool) {
	i, ok := t.index[name]
	if !ok {
		return schema.ToolDescriptor{}, false
	}
	return t.entries[i].desc, true
}

// Call validates args and runs the named handler. It returns the handler's
// result and its formatted display line. Errors unwrap to
// schema.ErrUnknownTool, schema.ErrMalformedArguments or *schema.HandlerError.
func (t *Table) Call(ctx context.Context, name string, args map[string]any) (result any, display string, err error) {
	i, ok := t.index[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", schema.ErrUnknownTool, name)
	}
	e := t.entries[i]
	if err := e.check.Validate(args); err != nil {
		return nil, "", err
	}

	result, err = safeCall(ctx, e.handler, name, args)
	if err != nil {
		return nil, "", &schema.HandlerError{Tool: name, Err: err}
	}
	if e.format != nil {
		display = e.format(args, result)
	}
	return result, display, nil
}

func safeCall(ctx context.Context, h HandlerFunc, name string, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tools: handler panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, args)
}
