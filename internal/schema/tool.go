// Package schema contains the types shared by the catalog, the dispatch table,
// the external registry and the execution loop.
package schema

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolDescriptor describes one callable tool as advertised to the model.
// Descriptors are immutable once placed in a catalog snapshot.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	// Provider names the external provider that owns the tool; empty for
	// first-party tools.
	Provider string
}

// External reports whether the tool is served by an external provider.
func (d ToolDescriptor) External() bool { return d.Provider != "" }

// ParametersJSON returns the parameter schema as raw JSON. A missing schema is
// rendered as an empty object schema.
func (d ToolDescriptor) ParametersJSON() json.RawMessage {
	if d.Parameters == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	raw, err := json.Marshal(d.Parameters)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return raw
}

// ParametersMap returns the parameter schema decoded into a generic map, the
// shape most SDKs expect for function definitions.
func (d ToolDescriptor) ParametersMap() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(d.ParametersJSON(), &out)
	return out
}

// SchemaFromAny converts an arbitrary JSON-compatible value (for example an
// MCP input schema) into a jsonschema.Schema.
func SchemaFromAny(v any) (*jsonschema.Schema, error) {
	if v == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
