package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// UsageRepository implements ports.UsageStore using SQLite.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(db *sql.DB) ports.UsageStore {
	return &UsageRepository{db: db}
}

// SaveInvocation persists one ledger row.
func (r *UsageRepository) SaveInvocation(ctx context.Context, record *accounting.InvocationRecord) error {
	if record == nil {
		return fmt.Errorf("invocation record is nil")
	}

	query := `
		INSERT INTO invocation_usage (
			id, provider, model, family, stream, prompt_tokens,
			completion_tokens, total_tokens, usage_source, finish_reason,
			duration_ns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Provider,
		record.Model,
		string(record.Family),
		record.Stream,
		record.PromptTokens,
		record.CompletionTokens,
		record.TotalTokens,
		string(record.UsageSource),
		string(record.FinishReason),
		record.Duration.Nanoseconds(),
		record.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save invocation record: %w", err)
	}

	return nil
}

// ListInvocations retrieves ledger rows matching the filter, newest first.
func (r *UsageRepository) ListInvocations(ctx context.Context, filter accounting.Filter) ([]accounting.InvocationRecord, error) {
	query := `
		SELECT id, provider, model, family, stream, prompt_tokens,
			completion_tokens, total_tokens, usage_source, finish_reason,
			duration_ns, created_at
		FROM invocation_usage
		WHERE 1=1
	`
	query, args := applyFilter(query, filter)
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var records []accounting.InvocationRecord
	for rows.Next() {
		var record accounting.InvocationRecord
		var family, usageSource, finishReason, createdAt string
		var durationNs int64

		err := rows.Scan(
			&record.ID,
			&record.Provider,
			&record.Model,
			&family,
			&record.Stream,
			&record.PromptTokens,
			&record.CompletionTokens,
			&record.TotalTokens,
			&usageSource,
			&finishReason,
			&durationNs,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation record: %w", err)
		}

		record.Family = model.Family(family)
		record.UsageSource = chat.UsageSource(usageSource)
		record.FinishReason = chat.FinishReason(finishReason)
		record.Duration = time.Duration(durationNs)
		record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invocation records: %w", err)
	}

	return records, nil
}

// Totals aggregates ledger rows matching the filter.
func (r *UsageRepository) Totals(ctx context.Context, filter accounting.Filter) (*accounting.Totals, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0)
		FROM invocation_usage
		WHERE 1=1
	`
	query, args := applyFilter(query, filter)

	var totals accounting.Totals
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&totals.Invocations,
		&totals.PromptTokens,
		&totals.CompletionTokens,
		&totals.TotalTokens,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query usage totals: %w", err)
	}

	return &totals, nil
}

func applyFilter(query string, filter accounting.Filter) (string, []any) {
	args := make([]any, 0)

	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	return query, args
}

// Ensure UsageRepository implements UsageStore.
var _ ports.UsageStore = (*UsageRepository)(nil)
