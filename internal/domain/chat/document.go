package chat

// Document is a retrievable text chunk supplied alongside the conversation.
// Providers that support grounded generation receive documents natively;
// others fold them into the conversation text.
type Document struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

func (d Document) String() string {
	return d.Content
}
