package prompt

import (
	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// ChatML special markers used by the GPT family template.
const (
	gptTurnStart = "<|im_start|>"
	gptTurnEnd   = "<|im_end|>"
)

// gptAdapter renders ChatML-style turns. Documents are folded into a
// synthetic user message before the final message; tools and the
// structured-output schema become leading system turns.
type gptAdapter struct{}

func (a *gptAdapter) Family() model.Family { return model.FamilyGPT }

func (a *gptAdapter) Render(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, false)
}

func (a *gptAdapter) RenderContinued(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, true)
}

func (a *gptAdapter) render(args model.Arguments, continueFinal bool) ([]model.Segment, error) {
	messages := FoldDocuments(args.Messages, args.Documents)

	segments := make([]model.Segment, 0, 4*(len(messages)+3))

	if args.HasTools() {
		toolsJSON, err := marshalTools(args.Tools)
		if err != nil {
			return nil, err
		}
		segments = appendGPTTurn(segments, chat.RoleSystem, "# Tools\n"+toolsJSON)
	}

	if args.HasResponseSchema() {
		segments = appendGPTTurn(segments, chat.RoleSystem, schemaInstruction(args.ResponseSchema))
	}

	for i, message := range messages {
		last := i == len(messages)-1
		if last && continueFinal {
			// Leave the final turn open so generation continues it.
			segments = append(segments,
				model.Special(gptTurnStart),
				model.Text(message.Role, string(message.Role)+"\n"+message.Content),
			)
			return segments, nil
		}
		segments = appendGPTTurn(segments, message.Role, message.Content)
	}

	// Generation prompt: open the assistant turn the model will fill.
	segments = append(segments,
		model.Special(gptTurnStart),
		model.Text(chat.RoleAssistant, string(chat.RoleAssistant)+"\n"),
	)

	return segments, nil
}

func appendGPTTurn(segments []model.Segment, role chat.Role, content string) []model.Segment {
	return append(segments,
		model.Special(gptTurnStart),
		model.Text(role, string(role)+"\n"+content),
		model.Special(gptTurnEnd),
		model.Text(role, "\n"),
	)
}
