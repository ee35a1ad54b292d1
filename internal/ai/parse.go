package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// parseSuggestions pulls the JSON array out of a model reply and decodes it.
// Models wrap replies in markdown fences or lead-in text often enough that a
// plain Unmarshal is not good enough.
func parseSuggestions(text string) ([]Suggestion, error) {
	raw := extractJSONArray(text)
	if raw == "" {
		return nil, errors.New("no JSON array in model reply")
	}

	var out []Suggestion
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("model returned no suggestions")
	}
	return out, nil
}

// extractJSONArray returns the outermost bracketed slice of s, which also
// strips ```json fences as a side effect.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
