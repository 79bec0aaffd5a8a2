package chat

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonNone      FinishReason = "none"
)

// UsageSource records where the usage numbers came from.
type UsageSource string

const (
	// UsageSourceProvider means the backend reported the counts itself.
	// Provider-reported counts are authoritative when present.
	UsageSourceProvider UsageSource = "provider"
	// UsageSourceLocal means the counts were computed by the local tokenizer.
	UsageSourceLocal UsageSource = "local"
	// UsageSourceNone means no counts could be determined.
	UsageSourceNone UsageSource = "none"
)

// Usage holds token accounting for one invocation. TotalTokens is always
// PromptTokens + CompletionTokens.
type Usage struct {
	PromptTokens     int         `json:"prompt_tokens"`
	CompletionTokens int         `json:"completion_tokens"`
	TotalTokens      int         `json:"total_tokens"`
	Source           UsageSource `json:"source,omitempty"`
}

// NewUsage builds a Usage with the total derived from its parts.
func NewUsage(prompt, completion int, source UsageSource) Usage {
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Source:           source,
	}
}

// Empty reports whether no counts are populated.
func (u Usage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Choice is one generated alternative in a completion.
type Choice struct {
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finish_reason"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
}

// Completion is the normalized, OpenAI-compatible response shape returned by
// every provider binding, for both the non-streaming path and the final
// record of a streaming sequence.
type Completion struct {
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Text returns the content of the first choice, or the empty string.
func (c *Completion) Text() string {
	if c == nil || len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Content
}
