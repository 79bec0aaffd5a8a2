// Package ports defines the application-layer contracts implemented by
// adapters: the polymorphic model interface, prompt adaptation, token
// counting and usage storage.
package ports

import (
	"context"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Capabilities declares what a provider binding supports. The tokenizer
// family doubles as the capability flag for prompt construction and token
// counting: model.FamilyNone means both are unavailable for the binding.
type Capabilities struct {
	Streaming        bool
	Documents        bool
	Tools            bool
	StructuredOutput bool

	// Family is the tokenizer family this binding's prompts are counted
	// with, independent of which API endpoint it calls.
	Family model.Family
}

// SupportsTokenCounting reports whether the binding declared a tokenizer family.
func (c Capabilities) SupportsTokenCounting() bool {
	return c.Family != model.FamilyNone
}

// ProviderInfo contains provider metadata.
type ProviderInfo struct {
	Name        string
	Description string
	BaseURL     string
	IsLocal     bool
}

// EventType classifies one streaming event.
type EventType int

const (
	// EventDelta carries an incremental content fragment.
	EventDelta EventType = iota
	// EventDone terminates the sequence normally; Completion carries the
	// accumulated content and final usage.
	EventDone
	// EventError terminates the sequence with a failure. A stream never
	// ends silently on error, so consumers can distinguish normal
	// completion from mid-sequence failure.
	EventError
)

// Event is one element of a streaming response sequence. The sequence is
// lazy, single-pass and forward-only; the channel is closed after the
// terminal EventDone or EventError.
type Event struct {
	Type       EventType
	Delta      string
	ToolCall   *chat.ToolCall
	Completion *chat.Completion // populated on EventDone
	Err        error            // populated on EventError
}

// Model is the polymorphic core: one implementation per provider family.
// Complete and Stream accept the identical immutable Arguments shape and
// produce the identical normalized output shape, differing only in
// delivery. Implementations must be safe for concurrent use.
type Model interface {
	// Info returns metadata about this binding.
	Info() ProviderInfo

	// Capabilities returns what this binding supports.
	Capabilities() Capabilities

	// Complete performs a non-streaming invocation, blocking until the
	// full normalized response is available.
	Complete(ctx context.Context, args model.Arguments) (*chat.Completion, error)

	// Stream performs a streaming invocation. The returned channel yields
	// events as they arrive and is closed by the binding after a terminal
	// event. Cancelling ctx abandons the invocation and closes the
	// underlying connection.
	Stream(ctx context.Context, args model.Arguments) (<-chan Event, error)

	// ListModels returns model identifiers served by this binding.
	ListModels(ctx context.Context) ([]string, error)
}

// ValidateArguments checks the arguments against the binding's declared
// capabilities before any network I/O. Supplying an input kind the binding
// does not support fails fast with ErrUnsupportedInput rather than being
// silently dropped.
func ValidateArguments(caps Capabilities, args model.Arguments) error {
	if args.Stream && !caps.Streaming {
		return errors.NewError(errors.CodeInput,
			"provider does not support streaming", errors.ErrUnsupportedInput)
	}
	if args.HasDocuments() && !caps.Documents {
		return errors.NewError(errors.CodeInput,
			"provider does not support documents", errors.ErrUnsupportedInput)
	}
	if args.HasTools() && !caps.Tools {
		return errors.NewError(errors.CodeInput,
			"provider does not support tools", errors.ErrUnsupportedInput)
	}
	if args.HasResponseSchema() && !caps.StructuredOutput {
		return errors.NewError(errors.CodeInput,
			"provider does not support structured output", errors.ErrUnsupportedInput)
	}
	return nil
}
