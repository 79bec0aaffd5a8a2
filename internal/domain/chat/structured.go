package chat

import (
	"encoding/json"
	"strings"
)

// CleanJSON strips markdown code fences that models commonly wrap around
// JSON payloads, leaving the bare JSON document.
func CleanJSON(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "`")
	cleaned = strings.TrimPrefix(cleaned, "json")
	return strings.TrimSpace(cleaned)
}

// DecodeStructured decodes a schema-constrained model response into target,
// tolerating markdown fences around the payload.
func DecodeStructured(content string, target any) error {
	return json.Unmarshal([]byte(CleanJSON(content)), target)
}
