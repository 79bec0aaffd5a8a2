// Package chat contains the provider-agnostic conversation types shared by
// every provider binding: messages, documents, tools and the normalized
// completion shape.
package chat

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// KnownRoles returns the enumerated roles in a stable order.
func KnownRoles() []Role {
	return []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool}
}

// Valid reports whether the role is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is a single role/content pair in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage builds a Message for the given role string. Unknown roles are
// preserved verbatim so callers can pass provider-specific roles through.
func NewMessage(role, content string) Message {
	return Message{Role: Role(role), Content: content}
}

// System returns a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
