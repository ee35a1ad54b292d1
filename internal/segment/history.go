package segment

// DefaultHistoryLimit caps how many plan snapshots are retained.
const DefaultHistoryLimit = 50

// History is a bounded undo/redo stack of plan snapshots. A cursor points at
// the current snapshot; pushing while the cursor sits below the top discards
// the redo branch. When the bound is hit the oldest snapshot falls off the
// front and the cursor shifts down with it.
type History struct {
	snapshots []Plan
	cursor    int
	limit     int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{cursor: -1, limit: limit}
}

// Push records a deep copy of plan as the new current snapshot.
func (h *History) Push(plan Plan) {
	h.snapshots = append(h.snapshots[:h.cursor+1], plan.Clone())
	h.cursor++
	if len(h.snapshots) > h.limit {
		h.snapshots = h.snapshots[1:]
		h.cursor--
	}
}

// Undo moves the cursor back one snapshot and returns a copy of it. At the
// first position it is a no-op.
func (h *History) Undo() Plan {
	if h.cursor > 0 {
		h.cursor--
	}
	return h.Current()
}

// Redo moves the cursor forward one snapshot and returns a copy of it. At
// the top it is a no-op.
func (h *History) Redo() Plan {
	if h.cursor < len(h.snapshots)-1 {
		h.cursor++
	}
	return h.Current()
}

// Current returns a copy of the snapshot under the cursor, or an empty plan
// when nothing has been pushed yet.
func (h *History) Current() Plan {
	if h.cursor < 0 || h.cursor >= len(h.snapshots) {
		return Plan{}
	}
	return h.snapshots[h.cursor].Clone()
}

func (h *History) CanUndo() bool { return h.cursor > 0 }

func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

func (h *History) Len() int { return len(h.snapshots) }

func (h *History) Cursor() int { return h.cursor }
