package model

import (
	"strings"

	"github.com/jbctechsolutions/modelbridge/internal/domain/chat"
)

// SegmentKind distinguishes plain text from special tokenizer markers.
type SegmentKind int

const (
	// SegmentText is plain text encoded with the family's BPE vocabulary.
	SegmentText SegmentKind = iota
	// SegmentSpecial is a single special token looked up in the family's
	// special-token table. Markers absent from the table are a malformed
	// prompt, never silently skipped.
	SegmentSpecial
)

// Segment is one element of an adapted prompt: the ordered, typed structure
// a tokenizer consumes to reproduce the exact token sequence the provider
// sees. Adapters emit segments deterministically so counts are reproducible.
type Segment struct {
	Kind SegmentKind
	Role chat.Role // role that produced the segment, when applicable
	Text string    // literal text, or the special marker itself
}

// Text returns a plain text segment.
func Text(role chat.Role, text string) Segment {
	return Segment{Kind: SegmentText, Role: role, Text: text}
}

// Special returns a special-marker segment.
func Special(marker string) Segment {
	return Segment{Kind: SegmentSpecial, Text: marker}
}

// RenderSegments concatenates segments into the literal prompt string a
// provider would consume, with special markers rendered verbatim.
func RenderSegments(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
