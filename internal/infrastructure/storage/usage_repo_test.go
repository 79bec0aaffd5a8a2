package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(db); err != nil {
		t.Fatalf("applyMigrations() error = %v", err)
	}

	return db
}

func newRecord(id, provider, modelName string, prompt, completion int, createdAt time.Time) *accounting.InvocationRecord {
	return &accounting.InvocationRecord{
		ID:               id,
		Provider:         provider,
		Model:            modelName,
		Family:           model.FamilyGPT,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		UsageSource:      chat.UsageSourceProvider,
		FinishReason:     chat.FinishReasonStop,
		Duration:         120 * time.Millisecond,
		CreatedAt:        createdAt,
	}
}

func TestUsageRepository_SaveAndList(t *testing.T) {
	repo := NewUsageRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := repo.SaveInvocation(ctx, newRecord("a", "openai", "gpt-4o", 10, 5, now.Add(-time.Minute))); err != nil {
		t.Fatalf("SaveInvocation() error = %v", err)
	}
	if err := repo.SaveInvocation(ctx, newRecord("b", "cohere", "command-r", 20, 8, now)); err != nil {
		t.Fatalf("SaveInvocation() error = %v", err)
	}

	records, err := repo.ListInvocations(ctx, accounting.Filter{})
	if err != nil {
		t.Fatalf("ListInvocations() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	// Newest first.
	if records[0].ID != "b" {
		t.Errorf("records[0].ID = %q, want newest record first", records[0].ID)
	}
	if records[0].UsageSource != chat.UsageSourceProvider {
		t.Errorf("UsageSource = %q, want provider", records[0].UsageSource)
	}
	if records[0].Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", records[0].Duration)
	}
}

func TestUsageRepository_SaveNil(t *testing.T) {
	repo := NewUsageRepository(newTestDB(t))
	if err := repo.SaveInvocation(context.Background(), nil); err == nil {
		t.Error("nil record must be rejected")
	}
}

func TestUsageRepository_ListFiltered(t *testing.T) {
	repo := NewUsageRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	repo.SaveInvocation(ctx, newRecord("a", "openai", "gpt-4o", 10, 5, now.Add(-2*time.Hour)))
	repo.SaveInvocation(ctx, newRecord("b", "openai", "gpt-4o-mini", 3, 1, now))
	repo.SaveInvocation(ctx, newRecord("c", "cohere", "command-r", 20, 8, now))

	tests := []struct {
		name    string
		filter  accounting.Filter
		wantIDs []string
	}{
		{"by provider", accounting.Filter{Provider: "openai"}, []string{"b", "a"}},
		{"by model", accounting.Filter{Model: "command-r"}, []string{"c"}},
		{"since", accounting.Filter{Since: now.Add(-time.Hour)}, []string{"b", "c"}},
		{"limit", accounting.Filter{Limit: 1}, []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.ListInvocations(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListInvocations() error = %v", err)
			}
			if len(records) != len(tt.wantIDs) {
				t.Fatalf("len(records) = %d, want %d", len(records), len(tt.wantIDs))
			}
			got := make(map[string]bool, len(records))
			for _, r := range records {
				got[r.ID] = true
			}
			for _, id := range tt.wantIDs {
				if !got[id] {
					t.Errorf("record %q missing from results", id)
				}
			}
		})
	}
}

func TestUsageRepository_Totals(t *testing.T) {
	repo := NewUsageRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	repo.SaveInvocation(ctx, newRecord("a", "openai", "gpt-4o", 10, 5, now))
	repo.SaveInvocation(ctx, newRecord("b", "openai", "gpt-4o", 20, 10, now))
	repo.SaveInvocation(ctx, newRecord("c", "cohere", "command-r", 7, 3, now))

	totals, err := repo.Totals(ctx, accounting.Filter{Provider: "openai"})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.Invocations != 2 {
		t.Errorf("Invocations = %d, want 2", totals.Invocations)
	}
	if totals.PromptTokens != 30 || totals.CompletionTokens != 15 || totals.TotalTokens != 45 {
		t.Errorf("totals = %+v, want 30/15/45", totals)
	}

	all, err := repo.Totals(ctx, accounting.Filter{})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if all.Invocations != 3 || all.TotalTokens != 55 {
		t.Errorf("all totals = %+v, want 3 invocations, 55 tokens", all)
	}
}

func TestUsageRepository_TotalsEmpty(t *testing.T) {
	repo := NewUsageRepository(newTestDB(t))

	totals, err := repo.Totals(context.Background(), accounting.Filter{})
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.Invocations != 0 || totals.TotalTokens != 0 {
		t.Errorf("empty ledger totals = %+v, want zeros", totals)
	}
}
