// Package e2e provides end-to-end integration tests for modelbridge.
//
// The tests wire the real tokenizer registry, prompt adapters, invocation
// service and sqlite ledger together, substituting only the provider
// transport so no network is needed.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbctechsolutions/modelbridge/internal/application/invoke"
	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/accounting"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/config"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/storage"
	"github.com/jbctechsolutions/modelbridge/internal/infrastructure/tokenizer"
)

// wordEncoding tokenizes one token per whitespace-separated word, a
// deterministic stand-in for a BPE vocabulary.
type wordEncoding struct{}

func (wordEncoding) Encode(text string, _, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

// writeArtifacts creates a valid artifact directory for a family under root.
func writeArtifacts(t *testing.T, root string, family model.Family) {
	t.Helper()
	dir := filepath.Join(root, string(family))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		tokenizer.DefinitionFile:    `{"version": "1", "model": {"type": "BPE", "encoding": "cl100k_base"}}`,
		tokenizer.ConfigFile:        `{"bos_token": "<|im_start|>", "eos_token": "<|im_end|>", "chat_style": "chatml"}`,
		tokenizer.SpecialTokensFile: `{"<|im_start|>": 100264, "<|im_end|>": 100265}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// echoBinding is a provider binding whose transport is replaced by a canned
// response. Everything above the wire is real.
type echoBinding struct {
	reply string
	usage chat.Usage
}

func (b *echoBinding) Info() ports.ProviderInfo {
	return ports.ProviderInfo{Name: "echo", IsLocal: true}
}

func (b *echoBinding) Capabilities() ports.Capabilities {
	return ports.Capabilities{
		Streaming: true,
		Documents: true,
		Family:    model.FamilyGPT,
	}
}

func (b *echoBinding) Complete(ctx context.Context, args model.Arguments) (*chat.Completion, error) {
	if err := ports.ValidateArguments(b.Capabilities(), args); err != nil {
		return nil, err
	}
	return &chat.Completion{
		Model:   args.Model,
		Choices: []chat.Choice{{Content: b.reply, FinishReason: chat.FinishReasonStop}},
		Usage:   b.usage,
	}, nil
}

func (b *echoBinding) Stream(ctx context.Context, args model.Arguments) (<-chan ports.Event, error) {
	if err := ports.ValidateArguments(b.Capabilities(), args); err != nil {
		return nil, err
	}
	events := make(chan ports.Event)
	go func() {
		defer close(events)
		for _, word := range strings.SplitAfter(b.reply, " ") {
			select {
			case events <- ports.Event{Type: ports.EventDelta, Delta: word}:
			case <-ctx.Done():
				return
			}
		}
		done := ports.Event{Type: ports.EventDone, Completion: &chat.Completion{
			Model:   args.Model,
			Choices: []chat.Choice{{Content: b.reply, FinishReason: chat.FinishReasonStop}},
			Usage:   b.usage,
		}}
		select {
		case events <- done:
		case <-ctx.Done():
		}
	}()
	return events, nil
}

func (b *echoBinding) ListModels(ctx context.Context) ([]string, error) {
	return []string{"gpt-4o-mini"}, nil
}

// echoResolver returns the same binding for every model.
type echoResolver struct {
	binding ports.Model
}

func (r *echoResolver) ForModel(name string) (ports.Model, error) {
	return r.binding, nil
}

// newTestService wires a real counter and ledger around the echo binding.
func newTestService(t *testing.T, binding ports.Model) (*invoke.Service, func()) {
	t.Helper()

	artifactRoot := t.TempDir()
	writeArtifacts(t, artifactRoot, model.FamilyGPT)
	registry := tokenizer.NewRegistry(artifactRoot, tokenizer.WithEncodingLoader(
		func(name string) (tokenizer.Encoding, error) { return wordEncoding{}, nil }))
	counter := tokenizer.NewCounter(registry)

	conn, err := storage.NewConnection(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewConnection() error: %v", err)
	}
	if err := conn.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	db, err := conn.DB()
	if err != nil {
		t.Fatalf("DB() error: %v", err)
	}

	service, err := invoke.NewService(&echoResolver{binding: binding}, counter,
		invoke.WithUsageStore(storage.NewUsageRepository(db)))
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	cleanup := func() {
		if err := conn.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	}
	return service, cleanup
}

func TestE2E_CompleteAndLedger(t *testing.T) {
	binding := &echoBinding{
		reply: "Paris is the capital of France",
		usage: chat.NewUsage(12, 7, chat.UsageSourceProvider),
	}
	service, cleanup := newTestService(t, binding)
	defer cleanup()

	ctx := context.Background()
	args := model.Arguments{
		Model:    "gpt-4o-mini",
		Messages: []chat.Message{chat.User("What is the capital of France?")},
	}

	completion, err := service.Complete(ctx, args)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if completion.Text() != binding.reply {
		t.Errorf("Text() = %q", completion.Text())
	}
	if completion.Usage.Source != chat.UsageSourceProvider {
		t.Errorf("usage source = %q, want provider", completion.Usage.Source)
	}
	if completion.Usage.TotalTokens != 19 {
		t.Errorf("total tokens = %d, want 19", completion.Usage.TotalTokens)
	}

	totals, err := service.Usage(ctx, accounting.Filter{})
	if err != nil {
		t.Fatalf("Usage() error: %v", err)
	}
	if totals.Invocations != 1 {
		t.Errorf("invocations = %d, want 1", totals.Invocations)
	}
	if totals.TotalTokens != 19 {
		t.Errorf("ledger total = %d, want 19", totals.TotalTokens)
	}

	records, err := service.History(ctx, accounting.Filter{})
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Provider != "echo" || records[0].Model != "gpt-4o-mini" {
		t.Errorf("record = %+v", records[0])
	}
	if records[0].Stream {
		t.Error("record marked as stream for a Complete call")
	}
}

func TestE2E_StreamDeliversDeltasAndRecords(t *testing.T) {
	binding := &echoBinding{
		reply: "hello streaming world",
		usage: chat.NewUsage(5, 3, chat.UsageSourceProvider),
	}
	service, cleanup := newTestService(t, binding)
	defer cleanup()

	ctx := context.Background()
	args := model.Arguments{
		Model:    "gpt-4o-mini",
		Messages: []chat.Message{chat.User("say hello")},
	}

	var assembled strings.Builder
	completion, err := service.Stream(ctx, args, func(delta string) error {
		assembled.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if assembled.String() != binding.reply {
		t.Errorf("assembled deltas = %q, want %q", assembled.String(), binding.reply)
	}
	if completion.Text() != binding.reply {
		t.Errorf("final completion = %q", completion.Text())
	}

	records, err := service.History(ctx, accounting.Filter{})
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if !records[0].Stream {
		t.Error("record not marked as stream")
	}
}

func TestE2E_LocalCountingFillsMissingUsage(t *testing.T) {
	// The binding reports no usage at all; the service must fall back to the
	// local tokenizer and mark the source accordingly.
	binding := &echoBinding{
		reply: "one two three",
		usage: chat.Usage{Source: chat.UsageSourceNone},
	}
	service, cleanup := newTestService(t, binding)
	defer cleanup()

	completion, err := service.Complete(context.Background(), model.Arguments{
		Model:    "gpt-4o-mini",
		Messages: []chat.Message{chat.User("count for me")},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if completion.Usage.Source != chat.UsageSourceLocal {
		t.Errorf("usage source = %q, want local", completion.Usage.Source)
	}
	if completion.Usage.CompletionTokens != 3 {
		t.Errorf("completion tokens = %d, want 3", completion.Usage.CompletionTokens)
	}
	if completion.Usage.PromptTokens == 0 {
		t.Error("prompt tokens not counted")
	}
}

func TestE2E_CountTokensMatchesRenderedPrompt(t *testing.T) {
	service, cleanup := newTestService(t, &echoBinding{reply: "x"})
	defer cleanup()

	args := model.Arguments{
		Model: "gpt-4o-mini",
		Messages: []chat.Message{
			chat.System("Be brief."),
			chat.User("Hello there"),
		},
	}

	count, err := service.CountTokens(args)
	if err != nil {
		t.Fatalf("CountTokens() error: %v", err)
	}
	if count == 0 {
		t.Fatal("CountTokens() returned zero for a non-empty prompt")
	}

	again, err := service.CountTokens(args)
	if err != nil {
		t.Fatalf("second CountTokens() error: %v", err)
	}
	if count != again {
		t.Errorf("counting is not deterministic: %d vs %d", count, again)
	}

	rendered, err := service.RenderPrompt(args)
	if err != nil {
		t.Fatalf("RenderPrompt() error: %v", err)
	}
	if !strings.Contains(rendered, "Hello there") {
		t.Errorf("rendered prompt missing user content: %q", rendered)
	}
	if !strings.Contains(rendered, "<|im_start|>") {
		t.Errorf("rendered prompt missing template markers: %q", rendered)
	}
}

func TestE2E_UnsupportedInputFailsBeforeTransport(t *testing.T) {
	service, cleanup := newTestService(t, &echoBinding{reply: "x"})
	defer cleanup()

	_, err := service.Complete(context.Background(), model.Arguments{
		Model:    "gpt-4o-mini",
		Messages: []chat.Message{chat.User("hi")},
		Tools:    []chat.Tool{{Name: "search"}},
	})
	if err == nil {
		t.Fatal("expected unsupported-input error for tools")
	}

	records, err := service.History(context.Background(), accounting.Filter{})
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("failed invocation was recorded: %+v", records)
	}
}

func TestE2E_ConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	loader, err := config.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Tokenizers.Directory = filepath.Join(dir, "tokenizers")
	cfg.Usage.DatabasePath = filepath.Join(dir, "ledger.db")
	if err := loader.Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if loaded.Tokenizers.Directory != cfg.Tokenizers.Directory {
		t.Errorf("tokenizers dir = %q", loaded.Tokenizers.Directory)
	}
	if !loaded.Providers.Ollama.Enabled {
		t.Error("ollama not enabled in defaults")
	}
}
