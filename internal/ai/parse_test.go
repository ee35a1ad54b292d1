package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Suggestion
	}{
		{
			name: "bare array",
			text: `[{"start":1,"end":5,"label":"Intro"},{"start":6,"end":10,"label":"Body"}]`,
			want: []Suggestion{{1, 5, "Intro"}, {6, 10, "Body"}},
		},
		{
			name: "fenced",
			text: "```json\n[{\"start\":1,\"end\":3,\"label\":\"A\"}]\n```",
			want: []Suggestion{{1, 3, "A"}},
		},
		{
			name: "prose around the array",
			text: "Here is my proposal:\n[{\"start\":2,\"end\":4,\"label\":\"Mid\"}]\nLet me know.",
			want: []Suggestion{{2, 4, "Mid"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestions(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSuggestions_Errors(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here",
		"[]",
		`[{"start": "one"}]`,
		"{\"start\":1,\"end\":2}",
	} {
		_, err := parseSuggestions(text)
		assert.Error(t, err, "text %q", text)
	}
}
