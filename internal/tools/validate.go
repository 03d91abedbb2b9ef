package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// ParseArguments decodes a raw argument string into a JSON object. An empty
// string is an empty object.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedArguments, err)
	}
	if args == nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object", schema.ErrMalformedArguments)
	}
	return args, nil
}

// validator checks arguments against a descriptor's parameter schema.
type validator struct {
	schema *gojsonschema.Schema
}

func newValidator(desc schema.ToolDescriptor) (*validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(desc.ParametersJSON()))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", desc.Name, err)
	}
	return &validator{schema: s}, nil
}

func (v *validator) Validate(args map[string]any) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrMalformedArguments, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", schema.ErrMalformedArguments, strings.Join(msgs, "; "))
	}
	return nil
}
