package chat

import (
	"encoding/json"
	"testing"
)

func weatherTool() Tool {
	return Tool{
		Name:        "get_weather",
		Description: "Look up the current weather for a location",
		Parameters: []Parameter{
			{Name: "location", Description: "City name", Type: "string", Required: true},
			{Name: "unit", Description: "Temperature unit", Type: "string", Required: false},
		},
	}
}

func TestTool_Schema(t *testing.T) {
	tool := weatherTool()

	schema := tool.Schema(false)
	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("expected []string required, got %T", schema["required"])
	}
	if len(required) != 1 || required[0] != "location" {
		t.Errorf("expected only location required, got %v", required)
	}

	strict := tool.Schema(true)
	required = strict["required"].([]string)
	if len(required) != 2 {
		t.Errorf("expected all parameters required in strict mode, got %v", required)
	}

	props := schema["properties"].(map[string]any)
	if _, ok := props["location"]; !ok {
		t.Error("expected location in properties")
	}
	if schema["additionalProperties"] != false {
		t.Error("expected additionalProperties false")
	}
}

func TestToolCall_Validate(t *testing.T) {
	tool := weatherTool()

	tests := []struct {
		name    string
		call    ToolCall
		wantErr bool
	}{
		{
			name:    "valid with required only",
			call:    ToolCall{ID: "call_1", Name: "get_weather", Arguments: json.RawMessage(`{"location":"Berlin"}`)},
			wantErr: false,
		},
		{
			name:    "valid with optional",
			call:    ToolCall{ID: "call_2", Name: "get_weather", Arguments: json.RawMessage(`{"location":"Berlin","unit":"celsius"}`)},
			wantErr: false,
		},
		{
			name:    "missing required argument",
			call:    ToolCall{ID: "call_3", Name: "get_weather", Arguments: json.RawMessage(`{"unit":"celsius"}`)},
			wantErr: true,
		},
		{
			name:    "undeclared argument",
			call:    ToolCall{ID: "call_4", Name: "get_weather", Arguments: json.RawMessage(`{"location":"Berlin","altitude":500}`)},
			wantErr: true,
		},
		{
			name:    "wrong tool name",
			call:    ToolCall{ID: "call_5", Name: "get_forecast", Arguments: json.RawMessage(`{"location":"Berlin"}`)},
			wantErr: true,
		},
		{
			name:    "invalid arguments json",
			call:    ToolCall{ID: "call_6", Name: "get_weather", Arguments: json.RawMessage(`{"location":`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call.Validate(tool)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
