package prompt

import (
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Llama-family special markers. Mixtral shares the instruction template.
const (
	llamaBOS       = "<s>"
	llamaEOS       = "</s>"
	llamaInstOpen  = "[INST]"
	llamaInstClose = "[/INST]"
)

// llamaAdapter renders the instruction-tuned template shared by the llama
// and mixtral families: user turns wrapped in [INST] markers, the system
// prompt folded into the first user turn.
type llamaAdapter struct {
	family model.Family
}

func (a *llamaAdapter) Family() model.Family { return a.family }

func (a *llamaAdapter) Render(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, false)
}

func (a *llamaAdapter) RenderContinued(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, true)
}

func (a *llamaAdapter) render(args model.Arguments, continueFinal bool) ([]model.Segment, error) {
	messages := FoldDocuments(args.Messages, args.Documents)

	// Collect system-level preamble: explicit system messages, tool
	// declarations and the structured-output scaffold all fold into the
	// first user turn.
	var preamble []string
	var conversation []chat.Message
	for _, message := range messages {
		if message.Role == chat.RoleSystem {
			preamble = append(preamble, message.Content)
			continue
		}
		conversation = append(conversation, message)
	}

	if args.HasTools() {
		toolsJSON, err := marshalTools(args.Tools)
		if err != nil {
			return nil, err
		}
		preamble = append(preamble, "# Tools\n"+toolsJSON)
	}
	if args.HasResponseSchema() {
		preamble = append(preamble, schemaInstruction(args.ResponseSchema))
	}

	segments := make([]model.Segment, 0, 4*len(conversation)+2)
	firstUser := true

	for i, message := range conversation {
		last := i == len(conversation)-1
		switch message.Role {
		case chat.RoleAssistant:
			if last && continueFinal {
				segments = append(segments, model.Text(message.Role, " "+message.Content))
				return segments, nil
			}
			segments = append(segments,
				model.Text(message.Role, " "+message.Content),
				model.Special(llamaEOS),
			)
		default:
			content := message.Content
			if firstUser && len(preamble) > 0 {
				content = "<<SYS>>\n" + strings.Join(preamble, "\n\n") + "\n<</SYS>>\n\n" + content
			}
			firstUser = false
			segments = append(segments,
				model.Special(llamaBOS),
				model.Special(llamaInstOpen),
				model.Text(message.Role, " "+content+" "),
				model.Special(llamaInstClose),
			)
		}
	}

	return segments, nil
}
