package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ksfoundation/oneshot/internal/mcp"
	"github.com/ksfoundation/oneshot/internal/schema"
)

// Lookup resolves a tool name against the catalog snapshot the model saw.
type Lookup interface {
	Lookup(name string) (schema.ToolDescriptor, bool)
}

// ExternalCaller invokes tools served by external providers.
type ExternalCaller interface {
	CallTool(ctx context.Context, provider, tool string, args map[string]any) (*mcp.ToolResult, error)
}

// Recorder observes finished invocations.
type Recorder interface {
	ObserveTool(tool string, outcome schema.Outcome, elapsed time.Duration)
}

// Dispatcher turns one tool-call directive into a ToolInvocationResult. It
// never returns an error: every failure becomes a tagged result.
type Dispatcher struct {
	table    *Table
	external ExternalCaller
	recorder Recorder
}

// NewDispatcher returns a Dispatcher. external and recorder may be nil.
func NewDispatcher(table *Table, external ExternalCaller, recorder Recorder) *Dispatcher {
	return &Dispatcher{table: table, external: external, recorder: recorder}
}

// Table returns the first-party dispatch table.
func (d *Dispatcher) Table() *Table { return d.table }

// Dispatch parses the arguments, then resolves the name through the
// dispatch table and finally the external tools in catalog.
func (d *Dispatcher) Dispatch(ctx context.Context, catalog Lookup, req schema.ToolInvocationRequest) schema.ToolInvocationResult {
	start := time.Now()
	res := d.dispatch(ctx, catalog, req)
	if d.recorder != nil {
		d.recorder.ObserveTool(req.Name, res.Outcome, time.Since(start))
	}
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, catalog Lookup, req schema.ToolInvocationRequest) schema.ToolInvocationResult {
	res := schema.ToolInvocationResult{
		RequestID: req.ID,
		ToolName:  req.Name,
		Arguments: req.RawArguments,
	}

	args, err := ParseArguments(req.RawArguments)
	if err != nil {
		return failed(res, schema.OutcomeMalformedArguments, err)
	}

	if d.table != nil && d.table.Has(req.Name) {
		raw, display, err := d.table.Call(ctx, req.Name, args)
		if err != nil {
			return failed(res, outcomeFor(err), err)
		}
		res.RawResult = raw
		res.DisplayText = display
		res.Outcome = schema.OutcomeSuccess
		return res
	}

	if catalog != nil && d.external != nil {
		if desc, ok := catalog.Lookup(req.Name); ok && desc.External() {
			out, err := d.external.CallTool(ctx, desc.Provider, req.Name, args)
			if err != nil {
				return failed(res, schema.OutcomeHandlerError, &schema.HandlerError{Tool: req.Name, Err: err})
			}
			res.DisplayText = out.Text
			res.RawResult = out.Text
			if out.Structured != nil {
				res.RawResult = out.Structured
			}
			res.Outcome = schema.OutcomeSuccess
			return res
		}
	}

	return failed(res, schema.OutcomeUnknownTool, fmt.Errorf("%w: %s", schema.ErrUnknownTool, req.Name))
}

func outcomeFor(err error) schema.Outcome {
	switch {
	case errors.Is(err, schema.ErrMalformedArguments):
		return schema.OutcomeMalformedArguments
	case errors.Is(err, schema.ErrUnknownTool):
		return schema.OutcomeUnknownTool
	default:
		return schema.OutcomeHandlerError
	}
}

func failed(res schema.ToolInvocationResult, outcome schema.Outcome, err error) schema.ToolInvocationResult {
	res.Outcome = outcome
	res.Error = err.Error()
	return res
}
