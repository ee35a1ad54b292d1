package segment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Controller owns the working plan for one loaded document and funnels every
// mutation through validation and history snapshotting. Each successful
// mutation pushes exactly one snapshot; rejected input pushes none. Safe for
// concurrent use.
type Controller struct {
	mu      sync.RWMutex
	pages   *PageSet
	plan    Plan
	history *History
}

// View is a read-consistent summary of the controller state.
type View struct {
	PageCount int   `json:"page_count"`
	Rotations []int `json:"rotations"`
	Plan      Plan  `json:"plan"`
	CanUndo   bool  `json:"can_undo"`
	CanRedo   bool  `json:"can_redo"`
	Snapshots int   `json:"snapshots"`
	Cursor    int   `json:"cursor"`
}

// NewController builds a controller over pages with an empty plan. The
// history is seeded with that empty plan so the first undo after a mutation
// can return to it.
func NewController(pages *PageSet, historyLimit int) *Controller {
	c := &Controller{
		pages:   pages,
		history: NewHistory(historyLimit),
	}
	c.history.Push(c.plan)
	return c
}

func (c *Controller) validate(start, end int) error {
	n := c.pages.PageCount()
	if start < 0 || end < 0 || start >= n || end >= n {
		return &ValidationError{Reason: ReasonOutOfBounds, Start: start, End: end, PageCount: n}
	}
	if start > end {
		return &ValidationError{Reason: ReasonInvertedBounds, Start: start, End: end, PageCount: n}
	}
	return nil
}

// AddRange appends a validated range with a generated id, a positional
// default label and the next palette color.
func (c *Controller) AddRange(start, end int) (Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validate(start, end); err != nil {
		return Range{}, err
	}

	r := Range{
		ID:    uuid.NewString(),
		Start: start,
		End:   end,
		Label: fmt.Sprintf("Part %d", len(c.plan.Ranges)+1),
		Color: PaletteColor(len(c.plan.Ranges)),
	}
	c.plan.Ranges = append(c.plan.Ranges, r)
	c.history.Push(c.plan)
	return r, nil
}

// RemoveRange deletes the range with the given id, preserving the order of
// the rest. Unknown ids are a silent no-op and leave the history alone.
func (c *Controller) RemoveRange(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.plan.indexOf(id)
	if i < 0 {
		return false
	}
	c.plan.Ranges = append(c.plan.Ranges[:i], c.plan.Ranges[i+1:]...)
	c.history.Push(c.plan)
	return true
}

// RelabelRange updates a range's label in place. Unknown ids are a silent
// no-op.
func (c *Controller) RelabelRange(id, label string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.plan.indexOf(id)
	if i < 0 {
		return false
	}
	c.plan.Ranges[i].Label = label
	c.history.Push(c.plan)
	return true
}

// RecolorRange updates a range's color in place. The palette drives defaults
// only, so any non-empty color is accepted.
func (c *Controller) RecolorRange(id, color string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.plan.indexOf(id)
	if i < 0 || color == "" {
		return false
	}
	c.plan.Ranges[i].Color = color
	c.history.Push(c.plan)
	return true
}

// ClearRanges empties the plan. Clearing an already empty plan is a no-op.
func (c *Controller) ClearRanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.plan.IsEmpty() {
		return false
	}
	c.plan = Plan{}
	c.history.Push(c.plan)
	return true
}

// ReplacePlan swaps the whole plan for the given ranges in one step. Every
// incoming range is validated with the same rules as AddRange; a single
// invalid range rejects the batch and nothing changes. Accepted ranges get
// fresh ids, and missing labels or colors are filled positionally.
func (c *Controller) ReplacePlan(ranges []Range) (Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range ranges {
		if err := c.validate(r.Start, r.End); err != nil {
			return Plan{}, fmt.Errorf("range %q: %w", r.Label, err)
		}
	}

	next := Plan{Ranges: make([]Range, 0, len(ranges))}
	for i, r := range ranges {
		nr := Range{
			ID:    uuid.NewString(),
			Start: r.Start,
			End:   r.End,
			Label: r.Label,
			Color: r.Color,
		}
		if nr.Label == "" {
			nr.Label = fmt.Sprintf("Part %d", i+1)
		}
		if nr.Color == "" {
			nr.Color = PaletteColor(i)
		}
		next.Ranges = append(next.Ranges, nr)
	}
	c.plan = next
	c.history.Push(c.plan)
	return c.plan.Clone(), nil
}

// Undo steps the plan back one snapshot. At the first snapshot it is a
// no-op.
func (c *Controller) Undo() Plan {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plan = c.history.Undo()
	return c.plan.Clone()
}

// Redo steps the plan forward one snapshot. At the newest snapshot it is a
// no-op.
func (c *Controller) Redo() Plan {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plan = c.history.Redo()
	return c.plan.Clone()
}

// RotatePage advances a page's rotation by a quarter turn. Rotation is page
// state, not plan state: it is not snapshotted and not undoable.
func (c *Controller) RotatePage(page int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages.Rotate(page)
}

// SetPageRotation stores an absolute rotation for a page.
func (c *Controller) SetPageRotation(page, deg int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages.SetRotation(page, deg)
}

// Plan returns a copy of the working plan.
func (c *Controller) Plan() Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan.Clone()
}

func (c *Controller) PageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pages.PageCount()
}

func (c *Controller) Rotation(page int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pages.Rotation(page)
}

// Rotations returns a copy of the per-page rotation table.
func (c *Controller) Rotations() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pages.Rotations()
}

func (c *Controller) CanUndo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.CanUndo()
}

func (c *Controller) CanRedo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.CanRedo()
}

// View captures the controller state in one locked read.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		PageCount: c.pages.PageCount(),
		Rotations: c.pages.Rotations(),
		Plan:      c.plan.Clone(),
		CanUndo:   c.history.CanUndo(),
		CanRedo:   c.history.CanRedo(),
		Snapshots: c.history.Len(),
		Cursor:    c.history.Cursor(),
	}
}
