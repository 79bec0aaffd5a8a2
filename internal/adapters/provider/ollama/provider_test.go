package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

func newTestProvider(handler http.Handler) (*Provider, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewProvider(WithBaseURL(server.URL)), server
}

func TestProvider_Complete(t *testing.T) {
	provider, server := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointChat {
			t.Errorf("path = %q, want %q", r.URL.Path, EndpointChat)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:           "llama3",
			Message:         ChatMessage{Role: "assistant", Content: "Local answer"},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 9,
			EvalCount:       3,
		})
	}))
	defer server.Close()

	completion, err := provider.Complete(context.Background(), model.Arguments{
		Model:    "llama3",
		Messages: []chat.Message{chat.User("Hello")},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if completion.Text() != "Local answer" {
		t.Errorf("Text() = %q, want %q", completion.Text(), "Local answer")
	}
	if completion.Usage.Source != chat.UsageSourceProvider || completion.Usage.TotalTokens != 12 {
		t.Errorf("usage = %+v, want eval counts as provider usage", completion.Usage)
	}
	if completion.Choices[0].FinishReason != chat.FinishReasonStop {
		t.Errorf("finish reason = %q, want stop", completion.Choices[0].FinishReason)
	}
}

func TestProvider_UnsupportedInputBeforeNetwork(t *testing.T) {
	requested := false
	provider, server := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	tests := []struct {
		name string
		args model.Arguments
	}{
		{
			"documents",
			model.Arguments{
				Model:     "llama3",
				Messages:  []chat.Message{chat.User("hi")},
				Documents: []chat.Document{{Content: "doc"}},
			},
		},
		{
			"tools",
			model.Arguments{
				Model:    "llama3",
				Messages: []chat.Message{chat.User("hi")},
				Tools:    []chat.Tool{{Name: "lookup"}},
			},
		},
		{
			"response schema",
			model.Arguments{
				Model:          "llama3",
				Messages:       []chat.Message{chat.User("hi")},
				ResponseSchema: json.RawMessage(`{"type":"object"}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.Complete(context.Background(), tt.args)
			if !errors.Is(err, errors.ErrUnsupportedInput) {
				t.Errorf("expected ErrUnsupportedInput, got %v", err)
			}
			_, err = provider.Stream(context.Background(), tt.args)
			if !errors.Is(err, errors.ErrUnsupportedInput) {
				t.Errorf("Stream: expected ErrUnsupportedInput, got %v", err)
			}
		})
	}

	if requested {
		t.Error("unsupported input must be rejected before any request is made")
	}
}

func TestProvider_Stream(t *testing.T) {
	provider, server := newTestProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := []ChatResponse{
			{Model: "llama3", Message: ChatMessage{Role: "assistant", Content: "Lo"}},
			{Model: "llama3", Message: ChatMessage{Role: "assistant", Content: "cal"}},
			{Model: "llama3", Done: true, DoneReason: "stop", PromptEvalCount: 4, EvalCount: 2},
		}
		enc := json.NewEncoder(w)
		for _, chunk := range chunks {
			enc.Encode(chunk)
		}
	}))
	defer server.Close()

	events, err := provider.Stream(context.Background(), model.Arguments{
		Model:    "llama3",
		Messages: []chat.Message{chat.User("Hello")},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var deltas []string
	var final *chat.Completion
	for event := range events {
		switch event.Type {
		case ports.EventDelta:
			deltas = append(deltas, event.Delta)
		case ports.EventDone:
			final = event.Completion
		case ports.EventError:
			t.Fatalf("unexpected stream error: %v", event.Err)
		}
	}

	if got := strings.Join(deltas, ""); got != "Local" {
		t.Errorf("concatenated deltas = %q, want %q", got, "Local")
	}
	if final == nil {
		t.Fatal("stream ended without a terminal completion")
	}
	if final.Usage.TotalTokens != 6 || final.Usage.Source != chat.UsageSourceProvider {
		t.Errorf("usage = %+v, want provider-reported 6 total", final.Usage)
	}
}

func TestProvider_Capabilities(t *testing.T) {
	provider := NewProvider()
	caps := provider.Capabilities()
	if caps.Family != model.FamilyNone {
		t.Errorf("family = %q, want none", caps.Family)
	}
	if caps.SupportsTokenCounting() {
		t.Error("ollama binding must decline tokenizer support")
	}
	if !provider.Info().IsLocal {
		t.Error("ollama binding must report itself local")
	}
}
