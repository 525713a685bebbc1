package tools

import (
	"fmt"
)

// Schema is a minimal JSON-schema object description, enough for the
// provider-facing function-calling catalog and for boundary validation of
// provider-supplied arguments.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// Property describes one argument.
type Property struct {
	Type        string // "string", "number", "integer", "boolean"
	Description string
	Enum        []string
}

// NewSchema builds a schema from properties and the required name list.
func NewSchema(props map[string]Property, required ...string) *Schema {
	return &Schema{Properties: props, Required: required}
}

// AsMap renders the schema as a JSON-schema map for the provider catalog.
func (s *Schema) AsMap() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// Validate checks provider-supplied arguments against the schema. Required
// arguments must be present and non-empty; typed arguments must carry a
// compatible JSON type. Unknown extra arguments are tolerated since
// providers occasionally add them.
func (s *Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		v, ok := args[name]
		if !ok || v == nil {
			return fmt.Errorf("missing required argument %q", name)
		}
		if str, isStr := v.(string); isStr && str == "" {
			return fmt.Errorf("required argument %q is empty", name)
		}
	}

	for name, v := range args {
		p, ok := s.Properties[name]
		if !ok || v == nil {
			continue
		}
		if err := checkType(name, p.Type, v); err != nil {
			return err
		}
		if len(p.Enum) > 0 {
			if str, isStr := v.(string); isStr && !contains(p.Enum, str) {
				return fmt.Errorf("argument %q must be one of %v", name, p.Enum)
			}
		}
	}

	return nil
}

func checkType(name, want string, v any) error {
	switch want {
	case "string":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "number", "integer":
		switch v.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// String reads a string argument, returning fallback when absent.
func String(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int reads an integer argument, tolerating the float64 JSON decodes to.
func Int(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return fallback
	}
}
