package chat

import (
	"encoding/json"
	"fmt"
)

// Parameter describes a single argument of a callable tool.
type Parameter struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"` // JSON schema primitive: string, number, integer, boolean, array, object
	Required    bool   `json:"required"`
}

// Tool is a callable-tool schema offered to the model.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// Schema returns the tool's parameters as a JSON schema object. When strict
// is set, every parameter is marked required regardless of its own flag,
// matching strict function-calling modes.
func (t Tool) Schema(strict bool) map[string]any {
	properties := make(map[string]any, len(t.Parameters))
	required := make([]string, 0, len(t.Parameters))

	for _, p := range t.Parameters {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required || strict {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// ToolCall is a model-requested invocation of a declared tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Validate checks the call's arguments against the declared tool parameters.
// Missing required arguments and undeclared arguments are both rejected so a
// caller never dispatches a call the tool cannot honor.
func (c ToolCall) Validate(tool Tool) error {
	if c.Name != tool.Name {
		return fmt.Errorf("tool call %q does not match tool %q", c.Name, tool.Name)
	}

	var values map[string]any
	if len(c.Arguments) > 0 {
		if err := json.Unmarshal(c.Arguments, &values); err != nil {
			return fmt.Errorf("tool call %q has invalid arguments: %w", c.Name, err)
		}
	}

	declared := make(map[string]Parameter, len(tool.Parameters))
	for _, p := range tool.Parameters {
		declared[p.Name] = p
		if p.Required {
			if _, ok := values[p.Name]; !ok {
				return fmt.Errorf("tool call %q missing required argument %q", c.Name, p.Name)
			}
		}
	}

	for name := range values {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("tool call %q has undeclared argument %q", c.Name, name)
		}
	}

	return nil
}
