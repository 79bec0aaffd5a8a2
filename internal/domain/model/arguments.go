package model

import (
	"encoding/json"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
)

// Arguments is the single uniform request shape accepted by every provider
// binding and by the prompt adapters. Constructed once per call and never
// mutated across that boundary: both the streaming and non-streaming paths
// receive the identical value.
type Arguments struct {
	Model          string
	Messages       []chat.Message
	Documents      []chat.Document
	Tools          []chat.Tool
	ResponseSchema json.RawMessage // optional JSON schema constraining the output
	Stream         bool
	MaxTokens      int
	Temperature    float32
}

// HasDocuments reports whether retrievable documents were supplied.
func (a Arguments) HasDocuments() bool { return len(a.Documents) > 0 }

// HasTools reports whether tool definitions were supplied.
func (a Arguments) HasTools() bool { return len(a.Tools) > 0 }

// HasResponseSchema reports whether a structured-output schema was supplied.
func (a Arguments) HasResponseSchema() bool { return len(a.ResponseSchema) > 0 }
