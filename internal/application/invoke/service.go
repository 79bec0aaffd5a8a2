// Package invoke provides the application service that orchestrates model
// invocations: binding resolution, capability validation, prompt adaptation,
// token accounting and usage ledger recording.
package invoke

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/modelbridge/internal/adapters/prompt"
	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/logging"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/tracing"
)

// Resolver maps a model name to the provider binding that serves it.
type Resolver interface {
	ForModel(modelName string) (ports.Model, error)
}

// Service orchestrates invocations across provider bindings.
type Service struct {
	resolver Resolver
	counter  ports.TokenCounter
	store    ports.UsageStore
	tracer   *tracing.Tracer
	logger   *logging.Logger
	newID    func() string
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithUsageStore enables ledger recording for every invocation.
func WithUsageStore(store ports.UsageStore) ServiceOption {
	return func(s *Service) { s.store = store }
}

// WithTracer sets the tracer used for invocation spans.
func WithTracer(tracer *tracing.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithLogger sets the service logger.
func WithLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithIDGenerator overrides ledger row ID generation.
func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a new invocation service.
func NewService(resolver Resolver, counter ports.TokenCounter, opts ...ServiceOption) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if counter == nil {
		return nil, fmt.Errorf("counter cannot be nil")
	}

	s := &Service{
		resolver: resolver,
		counter:  counter,
		tracer:   tracing.Default(),
		logger:   logging.Default(),
		newID:    uuid.NewString,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Complete performs a non-streaming invocation and returns the normalized
// completion with usage always populated.
func (s *Service) Complete(ctx context.Context, args model.Arguments) (*chat.Completion, error) {
	args.Stream = false

	binding, err := s.resolver.ForModel(args.Model)
	if err != nil {
		return nil, err
	}

	info := binding.Info()
	family := binding.Capabilities().Family
	ctx = logging.WithProvider(ctx, info.Name)
	ctx = logging.WithModel(ctx, args.Model)

	ctx, span := s.tracer.StartInvocationSpan(ctx, info.Name, args.Model, false)
	span.SetFamily(string(family))

	start := s.now()
	completion, err := binding.Complete(ctx, args)
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	s.reconcileUsage(ctx, family, args, completion)
	s.record(ctx, binding, args, completion, s.now().Sub(start))

	span.SetUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens, string(completion.Usage.Source))
	span.SetFinishReason(string(finishReason(completion)))
	span.End()

	return completion, nil
}

// Stream performs a streaming invocation, calling onDelta for every content
// fragment as it arrives. It blocks until the sequence terminates and returns
// the final normalized completion, identical in shape to Complete's result.
// A non-nil error from onDelta abandons the invocation.
func (s *Service) Stream(ctx context.Context, args model.Arguments, onDelta func(delta string) error) (*chat.Completion, error) {
	if onDelta == nil {
		return nil, fmt.Errorf("delta callback cannot be nil")
	}
	args.Stream = true

	binding, err := s.resolver.ForModel(args.Model)
	if err != nil {
		return nil, err
	}

	info := binding.Info()
	family := binding.Capabilities().Family
	ctx = logging.WithProvider(ctx, info.Name)
	ctx = logging.WithModel(ctx, args.Model)

	ctx, span := s.tracer.StartInvocationSpan(ctx, info.Name, args.Model, true)
	span.SetFamily(string(family))

	// A callback failure must tear down the provider connection, not just
	// stop reading.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := s.now()
	events, err := binding.Stream(ctx, args)
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	var completion *chat.Completion
	for event := range events {
		switch event.Type {
		case ports.EventDelta:
			if err := onDelta(event.Delta); err != nil {
				cancel()
				span.EndWithError(err)
				return nil, fmt.Errorf("delta callback failed: %w", err)
			}
		case ports.EventDone:
			completion = event.Completion
		case ports.EventError:
			span.EndWithError(event.Err)
			return nil, event.Err
		}
	}

	if completion == nil {
		err := errors.NewError(errors.CodeProvider,
			"stream ended without a terminal event", errors.ErrProvider)
		span.EndWithError(err)
		return nil, err
	}

	s.reconcileUsage(ctx, family, args, completion)
	s.record(ctx, binding, args, completion, s.now().Sub(start))

	span.SetUsage(completion.Usage.PromptTokens, completion.Usage.CompletionTokens, string(completion.Usage.Source))
	span.SetFinishReason(string(finishReason(completion)))
	span.End()

	return completion, nil
}

// CountTokens returns the exact local token count for the prompt the
// provider would see, without any network I/O. Unlike post-invocation
// accounting, every counting failure here is fatal: a pre-flight count that
// cannot be computed exactly is worthless.
func (s *Service) CountTokens(args model.Arguments) (int, error) {
	family, err := model.InferFamily(args.Model)
	if err != nil {
		return 0, err
	}

	adapter, err := prompt.ForFamily(family)
	if err != nil {
		return 0, err
	}

	segments, err := adapter.Render(args)
	if err != nil {
		return 0, err
	}

	return s.counter.Count(family, segments)
}

// RenderPrompt returns the literal prompt string the family's template
// produces for the given arguments.
func (s *Service) RenderPrompt(args model.Arguments) (string, error) {
	family, err := model.InferFamily(args.Model)
	if err != nil {
		return "", err
	}

	adapter, err := prompt.ForFamily(family)
	if err != nil {
		return "", err
	}

	segments, err := adapter.Render(args)
	if err != nil {
		return "", err
	}

	return model.RenderSegments(segments), nil
}

// Usage returns aggregate ledger totals, or zeros when no ledger is configured.
func (s *Service) Usage(ctx context.Context, filter accounting.Filter) (*accounting.Totals, error) {
	if s.store == nil {
		return &accounting.Totals{}, nil
	}
	return s.store.Totals(ctx, filter)
}

// History returns recorded invocations, newest first.
func (s *Service) History(ctx context.Context, filter accounting.Filter) ([]accounting.InvocationRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListInvocations(ctx, filter)
}

// reconcileUsage fills in local token counts when the provider reported
// none. Provider-reported counts are authoritative and never overwritten.
// Local counting failures degrade silently to UsageSourceNone: the
// invocation itself succeeded and accounting must not retroactively fail it.
func (s *Service) reconcileUsage(ctx context.Context, family model.Family, args model.Arguments, completion *chat.Completion) {
	if completion.Usage.Source == chat.UsageSourceProvider {
		return
	}
	if family == model.FamilyNone {
		return
	}

	adapter, err := prompt.ForFamily(family)
	if err != nil {
		return
	}

	segments, err := adapter.Render(args)
	if err != nil {
		s.logger.WarnContext(ctx, "could not adapt prompt for local counting", "error", err)
		return
	}

	promptTokens, err := s.counter.Count(family, segments)
	if err != nil {
		s.logger.DebugContext(ctx, "local token counting unavailable", "error", err)
		return
	}

	completionTokens, err := s.counter.CountText(family, completion.Text())
	if err != nil {
		s.logger.DebugContext(ctx, "local token counting unavailable", "error", err)
		return
	}

	completion.Usage = chat.NewUsage(promptTokens, completionTokens, chat.UsageSourceLocal)
}

// record appends one ledger row. Recording failures are logged, never
// propagated: the completion already happened.
func (s *Service) record(ctx context.Context, binding ports.Model, args model.Arguments, completion *chat.Completion, duration time.Duration) {
	if s.store == nil {
		return
	}

	rec := &accounting.InvocationRecord{
		ID:               s.newID(),
		Provider:         binding.Info().Name,
		Model:            args.Model,
		Family:           binding.Capabilities().Family,
		Stream:           args.Stream,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
		UsageSource:      completion.Usage.Source,
		FinishReason:     finishReason(completion),
		Duration:         duration,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.store.SaveInvocation(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "could not record invocation usage", "error", err)
	}
}

func finishReason(completion *chat.Completion) chat.FinishReason {
	if len(completion.Choices) == 0 {
		return chat.FinishReasonNone
	}
	return completion.Choices[0].FinishReason
}
