// Package planner turns a split plan into concrete output specs for the
// selected strategy. It is pure: no I/O, no clock, no randomness.
package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/local/pdfsplitter/internal/segment"
)

type Strategy string

const (
	StrategyRanges     Strategy = "ranges"
	StrategyChunks     Strategy = "chunks"
	StrategyExpression Strategy = "expression"
	StrategySuggested  Strategy = "suggested"
)

// ParseStrategy maps user input onto a known strategy. Empty input selects
// the default ranges strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyRanges:
		return StrategyRanges, nil
	case StrategyChunks:
		return StrategyChunks, nil
	case StrategyExpression:
		return StrategyExpression, nil
	case StrategySuggested:
		return StrategySuggested, nil
	default:
		return "", fmt.Errorf("unknown split strategy %q", s)
	}
}

var (
	ErrEmptyPlan      = errors.New("split plan has no ranges")
	ErrBadChunkSize   = errors.New("chunk size must be at least 1")
	ErrEmptySelection = errors.New("page expression selects no pages")
)

// OutputSpec describes one output document: which pages it takes from the
// source and the rotation captured for each of them at planning time. Pages
// are zero-based, ascending and deduplicated. RotationOverrides holds an
// entry for every included page and is immune to later page rotations.
type OutputSpec struct {
	Name              string      `json:"name"`
	Pages             []int       `json:"pages"`
	RotationOverrides map[int]int `json:"rotation_overrides"`
}

// PageCount returns how many source pages the spec covers.
func (s OutputSpec) PageCount() int { return len(s.Pages) }

// Request carries everything a Build needs. Rotations is indexed by
// zero-based page and is only read, never kept.
type Request struct {
	Strategy   Strategy
	Plan       segment.Plan
	PageCount  int
	Rotations  []int
	BaseName   string
	ChunkSize  int
	Expression string
}

// Build produces the output specs for the request's strategy. The suggested
// strategy shares the ranges path: suggestions mutate the plan before any
// split starts, so planning sees ordinary ranges.
func Build(req Request) ([]OutputSpec, error) {
	switch req.Strategy {
	case StrategyRanges, StrategySuggested, "":
		return buildRanges(req)
	case StrategyChunks:
		return buildChunks(req)
	case StrategyExpression:
		return buildExpression(req)
	default:
		return nil, fmt.Errorf("unknown split strategy %q", req.Strategy)
	}
}

func buildRanges(req Request) ([]OutputSpec, error) {
	if req.Plan.IsEmpty() {
		return nil, ErrEmptyPlan
	}

	base := BaseName(req.BaseName)
	specs := make([]OutputSpec, 0, len(req.Plan.Ranges))
	for i, r := range req.Plan.Ranges {
		name := fmt.Sprintf("%s_part_%d", base, i+1)
		if slug := sanitizeName(r.Label); slug != "" {
			name += "_" + slug
		}
		pages := r.Pages()
		specs = append(specs, OutputSpec{
			Name:              name,
			Pages:             pages,
			RotationOverrides: captureRotations(pages, req.Rotations),
		})
	}
	return specs, nil
}

func buildChunks(req Request) ([]OutputSpec, error) {
	k := req.ChunkSize
	if k < 1 {
		return nil, ErrBadChunkSize
	}

	base := BaseName(req.BaseName)
	var specs []OutputSpec
	for start := 0; start < req.PageCount; start += k {
		end := start + k
		if end > req.PageCount {
			end = req.PageCount
		}
		pages := make([]int, 0, end-start)
		for p := start; p < end; p++ {
			pages = append(pages, p)
		}
		specs = append(specs, OutputSpec{
			Name:              fmt.Sprintf("%s_part_%d", base, len(specs)+1),
			Pages:             pages,
			RotationOverrides: captureRotations(pages, req.Rotations),
		})
	}
	return specs, nil
}

func buildExpression(req Request) ([]OutputSpec, error) {
	pages := ParseExpression(req.Expression, req.PageCount)
	if len(pages) == 0 {
		return nil, ErrEmptySelection
	}
	return []OutputSpec{{
		Name:              BaseName(req.BaseName) + "_extracted",
		Pages:             pages,
		RotationOverrides: captureRotations(pages, req.Rotations),
	}}, nil
}

func captureRotations(pages []int, rotations []int) map[int]int {
	out := make(map[int]int, len(pages))
	for _, p := range pages {
		deg := 0
		if p >= 0 && p < len(rotations) {
			deg = rotations[p]
		}
		out[p] = deg
	}
	return out
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeName lowercases the label and collapses every run of other
// characters into a single underscore.
func sanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphanumeric.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "_")
	}
	return s
}

// BaseName derives the filename stem every output shares from the loaded
// document's name, falling back to "document" when nothing survives
// sanitizing.
func BaseName(s string) string {
	s = strings.TrimSuffix(s, filepath.Ext(s))
	if slug := sanitizeName(s); slug != "" {
		return slug
	}
	return "document"
}
