// Package prompt implements the per-family prompt argument adapters. Each
// adapter translates provider-agnostic invocation arguments into the exact
// ordered segment sequence its family's tokenizer consumes, absorbing the
// variance in chat templating and special-token placement so the rest of
// the system stays provider-agnostic.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// ContinuationRenderer is implemented by adapters that can render a prompt
// continuing the final message instead of opening a fresh assistant turn.
type ContinuationRenderer interface {
	RenderContinued(args model.Arguments) ([]model.Segment, error)
}

// ForFamily returns the prompt adapter for a tokenizer family.
func ForFamily(family model.Family) (ports.PromptAdapter, error) {
	switch family {
	case model.FamilyGPT:
		return &gptAdapter{}, nil
	case model.FamilyLlama, model.FamilyMixtral:
		return &llamaAdapter{family: family}, nil
	case model.FamilyCommandA, model.FamilyCommandR:
		return &commandAdapter{family: family}, nil
	default:
		return nil, errors.NewError(errors.CodeFamily,
			fmt.Sprintf("no prompt adapter for family %q", family), errors.ErrUnknownFamily)
	}
}

// FoldDocuments inserts the documents as a synthetic user message before
// the final message, for families and wire formats that have no native
// document slot. The original conversation is never mutated.
func FoldDocuments(messages []chat.Message, documents []chat.Document) []chat.Message {
	if len(documents) == 0 || len(messages) == 0 {
		return messages
	}

	var b strings.Builder
	b.WriteString("Documents:\n")
	for i, doc := range documents {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document: %d\n%s", i, doc.Content)
	}

	folded := make([]chat.Message, 0, len(messages)+1)
	folded = append(folded, messages[:len(messages)-1]...)
	folded = append(folded, chat.User(b.String()))
	folded = append(folded, messages[len(messages)-1])
	return folded
}

// marshalTools serializes tool schemas deterministically. json.Marshal
// emits map keys in sorted order, so identical tools always produce
// identical text.
func marshalTools(tools []chat.Tool) (string, error) {
	specs := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  tool.Schema(false),
		})
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return "", errors.NewError(errors.CodePrompt, "cannot serialize tools", errors.ErrMalformedPrompt)
	}
	return string(data), nil
}

// schemaInstruction renders the structured-output scaffold shared by the
// adapters.
func schemaInstruction(schema json.RawMessage) string {
	return "Respond only with JSON matching this schema:\n" + string(schema)
}
