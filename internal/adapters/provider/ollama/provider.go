package ollama

import (
	"context"
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Provider implements the ports.Model interface for a local Ollama server.
// It declares no tokenizer family: token counting degrades to whatever the
// server reports, and documents or tools are rejected before any request
// is made.
type Provider struct {
	client  *Client
	baseURL string
}

var _ ports.Model = (*Provider)(nil)

// NewProvider creates a new Ollama provider.
func NewProvider(opts ...ClientOption) *Provider {
	client := NewClient(opts...)
	return &Provider{
		client:  client,
		baseURL: client.baseURL,
	}
}

// Info returns metadata about this provider.
func (p *Provider) Info() ports.ProviderInfo {
	return ports.ProviderInfo{
		Name:        "ollama",
		Description: "Local Ollama server",
		BaseURL:     p.baseURL,
		IsLocal:     true,
	}
}

// Capabilities returns what this binding supports.
func (p *Provider) Capabilities() ports.Capabilities {
	return ports.Capabilities{
		Streaming:        true,
		Documents:        false,
		Tools:            false,
		StructuredOutput: false,
		Family:           model.FamilyNone,
	}
}

// ListModels returns the locally available model names.
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

	resp, err := p.client.Chat(ctx, buildRequest(args))
	if err != nil {
		return nil, err
	}

	return buildCompletion(resp), nil
}

// Stream performs a streaming invocation.
func (p *Provider) Stream(ctx context.Context, args model.Arguments) (<-chan ports.Event, error) {
	if err := ports.ValidateArguments(p.Capabilities(), args); err != nil {
		return nil, err
	}

	req := buildRequest(args)
	events := make(chan ports.Event)

	go func() {
		defer close(events)

		var content strings.Builder
		var final *ChatResponse

		err := p.client.ChatStream(ctx, req, func(chunk *ChatResponse) error {
			if chunk.Message.Content != "" {
				content.WriteString(chunk.Message.Content)
				select {
				case events <- ports.Event{Type: ports.EventDelta, Delta: chunk.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if chunk.Done {
				final = chunk
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

		completion := &chat.Completion{
			Model: req.Model,
			Choices: []chat.Choice{{
				Content:      content.String(),
				FinishReason: chat.FinishReasonNone,
			}},
			Usage: chat.Usage{Source: chat.UsageSourceNone},
		}
		if final != nil {
			completion.Choices[0].FinishReason = convertDoneReason(final.DoneReason)
			if final.PromptEvalCount > 0 || final.EvalCount > 0 {
				completion.Usage = chat.NewUsage(final.PromptEvalCount, final.EvalCount, chat.UsageSourceProvider)
			}
		}
		select {
		case events <- ports.Event{Type: ports.EventDone, Completion: completion}:
		case <-ctx.Done():
		}
	}()

	return events, nil
}

func buildRequest(args model.Arguments) *ChatRequest {
	messages := make([]ChatMessage, 0, len(args.Messages))
	for _, msg := range args.Messages {
		messages = append(messages, ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	req := &ChatRequest{
		Model:    args.Model,
		Messages: messages,
	}

	if args.Temperature > 0 || args.MaxTokens > 0 {
		req.Options = &Options{
			Temperature: args.Temperature,
			NumPredict:  args.MaxTokens,
		}
	}

	return req
}

func buildCompletion(resp *ChatResponse) *chat.Completion {
	usage := chat.Usage{Source: chat.UsageSourceNone}
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		usage = chat.NewUsage(resp.PromptEvalCount, resp.EvalCount, chat.UsageSourceProvider)
	}

	return &chat.Completion{
		Model: resp.Model,
		Choices: []chat.Choice{{
			Content:      resp.Message.Content,
			FinishReason: convertDoneReason(resp.DoneReason),
		}},
		Usage: usage,
	}
}

func convertDoneReason(reason string) chat.FinishReason {
	switch reason {
	case "stop":
		return chat.FinishReasonStop
	case "length":
		return chat.FinishReasonLength
	default:
		return chat.FinishReasonNone
	}
}
