// Package cohere provides the model binding for the Cohere v2 Chat API.
package cohere

import (
	"encoding/json"
	"time"
)

// Message represents a single message in the chat conversation.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Document is a retrievable document passed in the request's native slot.
type Document struct {
	ID   string       `json:"id,omitempty"`
	Data DocumentData `json:"data"`
}

// DocumentData carries the document body.
type DocumentData struct {
	Text string `json:"text"`
}

// Tool represents a tool available to the model.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable function.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolCall represents a tool call requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ResponseFormat constrains the output to JSON, optionally schema-bound.
type ResponseFormat struct {
	Type   string          `json:"type"` // "text" or "json_object"
	Schema json.RawMessage `json:"schema,omitempty"`
}

// ChatRequest is the request body for POST /v2/chat.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Documents      []Document      `json:"documents,omitempty"`
	Tools          []Tool          `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

// AssistantMessage is the generated message in a response.
type AssistantMessage struct {
	Role      string         `json:"role"`
	Content   []ContentBlock `json:"content,omitempty"`
	ToolCalls []ToolCall     `json:"tool_calls,omitempty"`
}

// ContentBlock is one typed block of generated content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage carries the provider-reported token accounting.
type Usage struct {
	BilledUnits *TokenCounts `json:"billed_units,omitempty"`
	Tokens      *TokenCounts `json:"tokens,omitempty"`
}

// TokenCounts holds input/output token counts.
type TokenCounts struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatResponse is the response body from POST /v2/chat.
type ChatResponse struct {
	ID           string           `json:"id"`
	Message      AssistantMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
	Usage        *Usage           `json:"usage,omitempty"`
}

// StreamEvent is one SSE event in a streaming response. The type field
// discriminates the payload; content-delta events carry text fragments and
// the message-end event carries finish reason plus usage.
type StreamEvent struct {
	Type  string       `json:"type"`
	Index int          `json:"index,omitempty"`
	Delta *StreamDelta `json:"delta,omitempty"`
}

// StreamDelta is the per-event payload.
type StreamDelta struct {
	Message      *DeltaMessage `json:"message,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
}

// DeltaMessage carries an incremental message fragment.
type DeltaMessage struct {
	Content   *DeltaContent `json:"content,omitempty"`
	ToolCalls *ToolCall     `json:"tool_calls,omitempty"`
}

// DeltaContent is an incremental content fragment.
type DeltaContent struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// ErrorResponse represents an error from the API.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ModelsResponse is the response from GET /v1/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes one served model.
type ModelInfo struct {
	Name      string   `json:"name"`
	Endpoints []string `json:"endpoints,omitempty"`
}

// Config contains configuration for the Cohere client.
type Config struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		BaseURL:        "https://api.cohere.com",
		Timeout:        120 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 1 * time.Second,
		RetryMaxDelay:  30 * time.Second,
	}
}
