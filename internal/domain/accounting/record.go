// Package accounting contains the usage ledger record persisted for every
// invocation, the basis for usage reporting and pre-flight quota checks.
package accounting

import (
	"time"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// InvocationRecord is one ledger row: the usage accounting outcome of a
// single invocation, with the source of the counts preserved.
type InvocationRecord struct {
	ID               string
	Provider         string
	Model            string
	Family           model.Family
	Stream           bool
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	UsageSource      chat.UsageSource
	FinishReason     chat.FinishReason
	Duration         time.Duration
	CreatedAt        time.Time
}

// Totals is an aggregate over ledger rows.
type Totals struct {
	Invocations      int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Filter restricts ledger queries.
type Filter struct {
	Provider string
	Model    string
	Since    time.Time
	Limit    int
}
