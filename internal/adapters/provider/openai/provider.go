package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/adapters/prompt"
	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Provider implements the ports.Model interface for OpenAI and any
// OpenAI-compatible endpoint.
type Provider struct {
	client *Client
	config Config
	family model.Family
}

// Ensure Provider implements Model at compile time.
var _ ports.Model = (*Provider)(nil)

// NewProvider creates a new OpenAI provider counting prompts with the GPT
// tokenizer.
func NewProvider(config Config, opts ...ClientOption) *Provider {
	return NewProviderForFamily(config, model.FamilyGPT, opts...)
}

// NewProviderForFamily creates an OpenAI-compatible provider for an
// arbitrary tokenizer family. model.FamilyNone declines token counting,
// which is the right choice for compatible endpoints serving unknown models.
func NewProviderForFamily(config Config, family model.Family, opts ...ClientOption) *Provider {
	return &Provider{
		client: NewClient(config, opts...),
		config: config,
		family: family,
	}
}

// NewProviderWithAPIKey creates a new OpenAI provider with default configuration.
func NewProviderWithAPIKey(apiKey string) *Provider {
	return NewProvider(DefaultConfig(apiKey))
}

// Info returns metadata about this provider.
func (p *Provider) Info() ports.ProviderInfo {
	return ports.ProviderInfo{
		Name:        "openai",
		Description: "OpenAI Chat Completions API",
		BaseURL:     p.config.BaseURL,
		IsLocal:     false,
	}
}

// Capabilities returns what this binding supports. Documents are accepted
// and folded into the conversation since the wire format has no native slot.
func (p *Provider) Capabilities() ports.Capabilities {
	return ports.Capabilities{
		Streaming:        true,
		Documents:        true,
		Tools:            true,
		StructuredOutput: true,
		Family:           p.family,
	}
}

// ListModels returns model identifiers served by the endpoint.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

// Complete performs a non-streaming invocation.
func (p *Provider) Complete(ctx context.Context, args model.Arguments) (*chat.Completion, error) {
	if err := ports.ValidateArguments(p.Capabilities(), args); err != nil {
		return nil, err
	}

	resp, err := p.client.Chat(ctx, p.buildRequest(args))
	if err != nil {
		return nil, err
	}

	return p.buildCompletion(resp), nil
}

// Stream performs a streaming invocation. The returned channel yields one
// event per content delta and is closed after the terminal event.
func (p *Provider) Stream(ctx context.Context, args model.Arguments) (<-chan ports.Event, error) {
	if err := ports.ValidateArguments(p.Capabilities(), args); err != nil {
		return nil, err
	}

	req := p.buildRequest(args)
	events := make(chan ports.Event)

	go func() {
		defer close(events)

		var content strings.Builder
		var toolCalls []chat.ToolCall
		var usage chat.Usage
		var modelUsed string
		finishReason := chat.FinishReasonNone

		err := p.client.ChatStream(ctx, req, func(chunk *StreamChunk) error {
			if modelUsed == "" && chunk.Model != "" {
				modelUsed = chunk.Model
			}

			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					content.WriteString(choice.Delta.Content)
					select {
					case events <- ports.Event{Type: ports.EventDelta, Delta: choice.Delta.Content}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				for _, call := range choice.Delta.ToolCalls {
					converted := convertToolCall(call)
					toolCalls = append(toolCalls, converted)
					select {
					case events <- ports.Event{Type: ports.EventDelta, ToolCall: &converted}:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				if choice.FinishReason != nil && *choice.FinishReason != "" {
					finishReason = convertFinishReason(*choice.FinishReason)
				}
			}

			// The usage-bearing chunk arrives last when include_usage is set.
			if chunk.Usage != nil {
				usage = chat.NewUsage(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, chat.UsageSourceProvider)
			}
			return nil
		})
		if err != nil {
			select {
			case events <- ports.Event{Type: ports.EventError, Err: err}:
			case <-ctx.Done():
			}
			return
		}

		if usage.Source == "" {
			usage.Source = chat.UsageSourceNone
		}
		done := ports.Event{Type: ports.EventDone, Completion: &chat.Completion{
			Model: modelUsed,
			Choices: []chat.Choice{{
				Content:      content.String(),
				FinishReason: finishReason,
				ToolCalls:    toolCalls,
			}},
			Usage: usage,
		}}
		select {
		case events <- done:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

// buildRequest converts invocation arguments to a ChatCompletionRequest.
func (p *Provider) buildRequest(args model.Arguments) *ChatCompletionRequest {
	folded := prompt.FoldDocuments(args.Messages, args.Documents)

	messages := make([]Message, 0, len(folded))
	for _, msg := range folded {
		messages = append(messages, Message{
			Role:    MessageRole(msg.Role),
			Content: msg.Content,
		})
	}

	req := &ChatCompletionRequest{
		Model:    args.Model,
		Messages: messages,
	}

	if args.MaxTokens > 0 {
		req.MaxTokens = &args.MaxTokens
	}
	if args.Temperature > 0 {
		req.Temperature = &args.Temperature
	}

	for _, tool := range args.Tools {
		req.Tools = append(req.Tools, Tool{
			Type: "function",
			Function: Function{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Schema(true),
				Strict:      true,
			},
		})
	}

	if args.HasResponseSchema() {
		var schema any
		if err := json.Unmarshal(args.ResponseSchema, &schema); err == nil {
			req.ResponseFormat = &ResponseFormat{
				Type: "json_schema",
				JSONSchema: &JSONSchema{
					Name:   "response",
					Schema: schema,
					Strict: true,
				},
			}
		} else {
			req.ResponseFormat = &ResponseFormat{Type: "json_object"}
		}
	}

	return req
}

// buildCompletion normalizes a provider response.
func (p *Provider) buildCompletion(resp *ChatCompletionResponse) *chat.Completion {
	completion := &chat.Completion{
		Model: resp.Model,
		Usage: chat.Usage{Source: chat.UsageSourceNone},
	}

	if resp.Usage != nil {
		completion.Usage = chat.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, chat.UsageSourceProvider)
	}

	for _, choice := range resp.Choices {
		converted := chat.Choice{
			Content:      choice.Message.Content,
			FinishReason: convertFinishReason(choice.FinishReason),
		}
		for _, call := range choice.Message.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, convertToolCall(call))
		}
		completion.Choices = append(completion.Choices, converted)
	}

	return completion
}

func convertToolCall(call ToolCall) chat.ToolCall {
	return chat.ToolCall{
		ID:        call.ID,
		Name:      call.Function.Name,
		Arguments: json.RawMessage(call.Function.Arguments),
	}
}

func convertFinishReason(reason FinishReason) chat.FinishReason {
	switch reason {
	case FinishReasonStop, FinishReasonContentFilter:
		return chat.FinishReasonStop
	case FinishReasonLength:
		return chat.FinishReasonLength
	case FinishReasonToolCalls:
		return chat.FinishReasonToolCalls
	default:
		return chat.FinishReasonNone
	}
}
