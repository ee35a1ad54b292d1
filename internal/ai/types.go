package ai

import (
	"context"
	"errors"
)

// Request asks a provider to propose split ranges for a loaded document.
type Request struct {
	DocName        string
	PageCount      int
	Excerpts       []PageExcerpt // optional sampled page text
	Instructions   string        // optional user guidance, free text
	Model          string
	MaxSuggestions int
}

// PageExcerpt carries sampled text for one page, zero-based index.
type PageExcerpt struct {
	Page int
	Text string
}

// Suggestion is one proposed range exactly as the model replies: 1-based,
// inclusive on both ends. Conversion to internal indexes happens upstream.
type Suggestion struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

type Response struct {
	Suggestions []Suggestion
	Provider    string
	Model       string
	TokensIn    int
	TokensOut   int
}

// Client interface for providers like OpenAI, Anthropic.
type Client interface {
	Name() string
	Suggest(ctx context.Context, req Request) (Response, error)
}

var ErrRateLimited = errors.New("rate_limited")

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
