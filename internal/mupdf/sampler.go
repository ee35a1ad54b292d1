// Package mupdf samples page text from a loaded document. The samples ride
// along with suggestion requests so the model sees real content instead of
// guessing structure from the page count alone.
package mupdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxPages = 8
	DefaultMaxChars = 600
)

// Excerpt is the condensed text of one page. Page index is zero-based.
type Excerpt struct {
	Page int
	Text string
}

// Sampler extracts text through MuPDF. Safe for concurrent use; every call
// opens its own document handle.
type Sampler struct {
	maxPages int
	maxChars int
}

// NewSampler caps a sample at maxPages pages and maxChars characters per
// page. Values <= 0 fall back to the defaults.
func NewSampler(maxPages, maxChars int) *Sampler {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Sampler{maxPages: maxPages, maxChars: maxChars}
}

// Sample picks pages spread across the document and returns their condensed
// text. Pages that fail to extract or carry no text are skipped, so the
// result may be shorter than the cap, or empty for scanned documents.
func (s *Sampler) Sample(data []byte) ([]Excerpt, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := spreadPages(doc.NumPage(), s.maxPages)
	out := make([]Excerpt, 0, len(pages))
	for _, p := range pages {
		raw, err := doc.Text(p)
		if err != nil {
			log.Warn().Err(err).Int("page", p).Msg("page text extraction failed")
			continue
		}
		text := truncate(condense(raw), s.maxChars)
		if text == "" {
			continue
		}
		out = append(out, Excerpt{Page: p, Text: text})
	}

	log.Debug().Int("pages", doc.NumPage()).Int("sampled", len(out)).Msg("sampled page text")
	return out, nil
}

// spreadPages returns up to max zero-based indexes covering the whole
// document, always including the first and last page.
func spreadPages(total, max int) []int {
	if total <= 0 {
		return nil
	}
	if total <= max {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i
		}
		return pages
	}
	if max == 1 {
		return []int{0}
	}

	pages := make([]int, 0, max)
	last := -1
	for i := 0; i < max; i++ {
		p := i * (total - 1) / (max - 1)
		if p == last {
			continue
		}
		pages = append(pages, p)
		last = p
	}
	return pages
}

// condense collapses whitespace runs to single spaces.
func condense(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts at the first rune boundary at or past max.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for i := range s {
		if i >= max {
			return s[:i]
		}
	}
	return s
}
