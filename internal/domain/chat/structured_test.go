package chat

import "testing"

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.input); got != tt.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeStructured(t *testing.T) {
	var out struct {
		Answer string `json:"answer"`
		Score  int    `json:"score"`
	}

	content := "```json\n{\"answer\": \"yes\", \"score\": 7}\n```"
	if err := DecodeStructured(content, &out); err != nil {
		t.Fatalf("DecodeStructured() error: %v", err)
	}
	if out.Answer != "yes" || out.Score != 7 {
		t.Errorf("unexpected decode result: %+v", out)
	}

	if err := DecodeStructured("not json at all", &out); err == nil {
		t.Error("expected error for non-JSON content")
	}
}

func TestUsage(t *testing.T) {
	u := NewUsage(12, 30, UsageSourceProvider)
	if u.TotalTokens != 42 {
		t.Errorf("expected total 42, got %d", u.TotalTokens)
	}
	if u.Empty() {
		t.Error("populated usage reported empty")
	}

	var zero Usage
	if !zero.Empty() {
		t.Error("zero usage not reported empty")
	}
}

func TestCompletion_Text(t *testing.T) {
	var nilCompletion *Completion
	if nilCompletion.Text() != "" {
		t.Error("expected empty text for nil completion")
	}

	c := &Completion{Choices: []Choice{{Content: "hello", FinishReason: FinishReasonStop}}}
	if c.Text() != "hello" {
		t.Errorf("expected 'hello', got %q", c.Text())
	}
}
