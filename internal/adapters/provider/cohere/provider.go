package cohere

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Provider implements the ports.Model interface for Cohere command models.
type Provider struct {
	client *Client
	config Config
	family model.Family
}

var _ ports.Model = (*Provider)(nil)

// NewProvider creates a new Cohere provider for the given tokenizer family.
func NewProvider(config Config, family model.Family, opts ...ClientOption) *Provider {
	return &Provider{
		client: NewClient(config, opts...),
		config: config,
		family: family,
	}
}

// NewProviderWithAPIKey creates a Cohere provider with default configuration,
// counting prompts with the command-r tokenizer.
func NewProviderWithAPIKey(apiKey string) *Provider {
	return NewProvider(DefaultConfig(apiKey), model.FamilyCommandR)
}

// Info returns metadata about this provider.
func (p *Provider) Info() ports.ProviderInfo {
	return ports.ProviderInfo{
		Name:        "cohere",
		Description: "Cohere v2 Chat API",
		BaseURL:     p.config.BaseURL,
		IsLocal:     false,
	}
}

// Capabilities returns what this binding supports. Documents ride in the
// request's native slot rather than being folded into the conversation.
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
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
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

	return p.buildCompletion(args.Model, resp), nil
}

// Stream performs a streaming invocation.
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
		finishReason := chat.FinishReasonNone

		err := p.client.ChatStream(ctx, req, func(event *StreamEvent) error {
			switch event.Type {
			case "content-delta":
				if event.Delta == nil || event.Delta.Message == nil || event.Delta.Message.Content == nil {
					return nil
				}
				text := event.Delta.Message.Content.Text
				if text == "" {
					return nil
				}
				content.WriteString(text)
				select {
				case events <- ports.Event{Type: ports.EventDelta, Delta: text}:
				case <-ctx.Done():
					return ctx.Err()
				}
			case "tool-call-end":
				if event.Delta == nil || event.Delta.Message == nil || event.Delta.Message.ToolCalls == nil {
					return nil
				}
				converted := convertToolCall(*event.Delta.Message.ToolCalls)
				toolCalls = append(toolCalls, converted)
				select {
				case events <- ports.Event{Type: ports.EventDelta, ToolCall: &converted}:
				case <-ctx.Done():
					return ctx.Err()
				}
			case "message-end":
				if event.Delta != nil {
					finishReason = convertFinishReason(event.Delta.FinishReason)
					usage = convertUsage(event.Delta.Usage)
				}
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
			Model: req.Model,
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

// buildRequest converts invocation arguments to a ChatRequest.
func (p *Provider) buildRequest(args model.Arguments) *ChatRequest {
	messages := make([]Message, 0, len(args.Messages))
	for _, msg := range args.Messages {
		messages = append(messages, Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	req := &ChatRequest{
		Model:    args.Model,
		Messages: messages,
	}

	for i, doc := range args.Documents {
		id := doc.ID
		if id == "" {
			id = "doc-" + strconv.Itoa(i)
		}
		req.Documents = append(req.Documents, Document{
			ID:   id,
			Data: DocumentData{Text: doc.Content},
		})
	}

	for _, tool := range args.Tools {
		req.Tools = append(req.Tools, Tool{
			Type: "function",
			Function: Function{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Schema(false),
			},
		})
	}

	if args.HasResponseSchema() {
		req.ResponseFormat = &ResponseFormat{
			Type:   "json_object",
			Schema: args.ResponseSchema,
		}
	}

	if args.MaxTokens > 0 {
		req.MaxTokens = &args.MaxTokens
	}
	if args.Temperature > 0 {
		req.Temperature = &args.Temperature
	}

	return req
}

// buildCompletion normalizes a provider response.
func (p *Provider) buildCompletion(modelName string, resp *ChatResponse) *chat.Completion {
	var content strings.Builder
	for _, block := range resp.Message.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	choice := chat.Choice{
		Content:      content.String(),
		FinishReason: convertFinishReason(resp.FinishReason),
	}
	for _, call := range resp.Message.ToolCalls {
		choice.ToolCalls = append(choice.ToolCalls, convertToolCall(call))
	}

	usage := convertUsage(resp.Usage)
	if usage.Source == "" {
		usage.Source = chat.UsageSourceNone
	}

	return &chat.Completion{
		Model:   modelName,
		Choices: []chat.Choice{choice},
		Usage:   usage,
	}
}

func convertUsage(usage *Usage) chat.Usage {
	if usage == nil {
		return chat.Usage{}
	}
	counts := usage.Tokens
	if counts == nil {
		counts = usage.BilledUnits
	}
	if counts == nil {
		return chat.Usage{}
	}
	return chat.NewUsage(counts.InputTokens, counts.OutputTokens, chat.UsageSourceProvider)
}

func convertToolCall(call ToolCall) chat.ToolCall {
	return chat.ToolCall{
		ID:        call.ID,
		Name:      call.Function.Name,
		Arguments: json.RawMessage(call.Function.Arguments),
	}
}

func convertFinishReason(reason string) chat.FinishReason {
	switch reason {
	case "COMPLETE", "STOP_SEQUENCE", "complete":
		return chat.FinishReasonStop
	case "MAX_TOKENS", "max_tokens":
		return chat.FinishReasonLength
	case "TOOL_CALL", "tool_call":
		return chat.FinishReasonToolCalls
	default:
		return chat.FinishReasonNone
	}
}
