// Package pdf is the pdfcpu-backed document codec: page counting, page
// extraction and rotation. Source bytes are never mutated; every operation
// works on fresh readers over the same slice.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/sync/errgroup"

	"github.com/local/pdfsplitter/internal/planner"
)

type Codec struct {
	workers int
}

// NewCodec builds a codec that extracts at most workers specs in parallel.
func NewCodec(workers int) *Codec {
	if workers < 1 {
		workers = 3
	}
	return &Codec{workers: workers}
}

// PageCount parses the document and returns its page count. This doubles as
// document validation at load time.
func (c *Codec) PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.New("empty document")
	}
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if n < 1 {
		return 0, errors.New("document has no pages")
	}
	return n, nil
}

// ExtractAll renders every spec into its own document. Specs are processed
// with bounded parallelism; the first failure cancels the rest.
func (c *Codec) ExtractAll(ctx context.Context, source []byte, specs []planner.OutputSpec) ([][]byte, error) {
	out := make([][]byte, len(specs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := c.Extract(source, spec)
			if err != nil {
				return fmt.Errorf("extract %s: %w", spec.Name, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract renders one spec: the selected pages in order, with the captured
// rotation overrides applied on top of each page's own rotation.
func (c *Codec) Extract(source []byte, spec planner.OutputSpec) ([]byte, error) {
	if len(spec.Pages) == 0 {
		return nil, errors.New("no pages selected")
	}

	octx, err := api.ReadContext(bytes.NewReader(source), nil)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	ectx, err := pdfcpu.ExtractPages(octx, onesBased(spec.Pages), false)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ectx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return applyRotations(buf.Bytes(), spec)
}

// onesBased converts internal zero-based page indexes to pdfcpu's 1-based
// page numbers.
func onesBased(pages []int) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p + 1
	}
	return out
}

// rotationSelectors groups the spec's nonzero rotation overrides by angle.
// Selectors address pages of the extracted document, where the spec's pages
// were renumbered 1..n in order.
func rotationSelectors(spec planner.OutputSpec) map[int][]string {
	groups := make(map[int][]string)
	for i, p := range spec.Pages {
		if deg := spec.RotationOverrides[p]; deg != 0 {
			groups[deg] = append(groups[deg], strconv.Itoa(i+1))
		}
	}
	return groups
}

func applyRotations(data []byte, spec planner.OutputSpec) ([]byte, error) {
	groups := rotationSelectors(spec)
	if len(groups) == 0 {
		return data, nil
	}

	// pdfcpu rotates relative to the page's stored rotation, which is
	// exactly the override semantics. Fixed angle order keeps runs
	// deterministic.
	for _, deg := range []int{90, 180, 270} {
		selectors := groups[deg]
		if len(selectors) == 0 {
			continue
		}
		var out bytes.Buffer
		if err := api.Rotate(bytes.NewReader(data), &out, deg, selectors, nil); err != nil {
			return nil, fmt.Errorf("rotate %d degrees: %w", deg, err)
		}
		data = out.Bytes()
	}
	return data, nil
}
