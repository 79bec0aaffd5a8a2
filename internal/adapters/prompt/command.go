package prompt

import (
	"fmt"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Command-family special markers.
const (
	commandBOS        = "<BOS_TOKEN>"
	commandTurnStart  = "<|START_OF_TURN_TOKEN|>"
	commandTurnEnd    = "<|END_OF_TURN_TOKEN|>"
	commandSystemRole = "<|SYSTEM_TOKEN|>"
	commandUserRole   = "<|USER_TOKEN|>"
	commandChatbot    = "<|CHATBOT_TOKEN|>"
)

// commandAdapter renders the command-family template. Unlike the other
// families the template has native slots for documents and tools, so
// nothing is folded into the conversation text.
type commandAdapter struct {
	family model.Family
}

func (a *commandAdapter) Family() model.Family { return a.family }

func (a *commandAdapter) Render(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, false)
}

func (a *commandAdapter) RenderContinued(args model.Arguments) ([]model.Segment, error) {
	return a.render(args, true)
}

func (a *commandAdapter) render(args model.Arguments, continueFinal bool) ([]model.Segment, error) {
	segments := make([]model.Segment, 0, 4*(len(args.Messages)+len(args.Documents)+3))
	segments = append(segments, model.Special(commandBOS))

	if args.HasTools() {
		toolsJSON, err := marshalTools(args.Tools)
		if err != nil {
			return nil, err
		}
		segments = appendCommandTurn(segments, commandSystemRole, chat.RoleSystem,
			"# Available Tools\n"+toolsJSON)
	}

	if args.HasResponseSchema() {
		segments = appendCommandTurn(segments, commandSystemRole, chat.RoleSystem,
			schemaInstruction(args.ResponseSchema))
	}

	if args.HasDocuments() {
		for i, doc := range args.Documents {
			id := doc.ID
			if id == "" {
				id = fmt.Sprintf("doc-%d", i)
			}
			segments = appendCommandTurn(segments, commandSystemRole, chat.RoleSystem,
				fmt.Sprintf("<result id=%q>\n%s\n</result>", id, doc.Content))
		}
	}

	for i, message := range args.Messages {
		last := i == len(args.Messages)-1
		roleMarker := commandRoleMarker(message.Role)
		if last && continueFinal {
			segments = append(segments,
				model.Special(commandTurnStart),
				model.Special(roleMarker),
				model.Text(message.Role, message.Content),
			)
			return segments, nil
		}
		segments = appendCommandTurn(segments, roleMarker, message.Role, message.Content)
	}

	// Generation prompt.
	segments = append(segments,
		model.Special(commandTurnStart),
		model.Special(commandChatbot),
	)

	return segments, nil
}

func commandRoleMarker(role chat.Role) string {
	switch role {
	case chat.RoleSystem:
		return commandSystemRole
	case chat.RoleAssistant:
		return commandChatbot
	default:
		return commandUserRole
	}
}

func appendCommandTurn(segments []model.Segment, roleMarker string, role chat.Role, content string) []model.Segment {
	return append(segments,
		model.Special(commandTurnStart),
		model.Special(roleMarker),
		model.Text(role, content),
		model.Special(commandTurnEnd),
	)
}
