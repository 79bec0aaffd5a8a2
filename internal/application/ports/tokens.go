package ports

import (
	"context"

	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// PromptAdapter translates invocation arguments into the ordered segment
// sequence a family's tokenizer consumes. Implementations are pure and
// deterministic: identical arguments always produce identical segments.
type PromptAdapter interface {
	Family() model.Family
	Render(args model.Arguments) ([]model.Segment, error)
}

// TokenCounter applies a resolved tokenizer to adapted segments.
// Count fails with ErrTokenizerUnavailable when the family has no usable
// artifacts (recoverable: degrade to provider-reported usage) and with
// ErrMalformedPrompt for unknown special markers (fatal for the call).
type TokenCounter interface {
	Count(family model.Family, segments []model.Segment) (int, error)
	CountText(family model.Family, text string) (int, error)
}

// UsageStore persists invocation usage ledger rows.
type UsageStore interface {
	SaveInvocation(ctx context.Context, record *accounting.InvocationRecord) error
	ListInvocations(ctx context.Context, filter accounting.Filter) ([]accounting.InvocationRecord, error)
	Totals(ctx context.Context, filter accounting.Filter) (*accounting.Totals, error)
}
