package segment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planWith(labels ...string) Plan {
	p := Plan{}
	for i, l := range labels {
		p.Ranges = append(p.Ranges, Range{ID: fmt.Sprintf("r%d", i), Start: i, End: i, Label: l})
	}
	return p
}

func TestHistory_CurrentOnEmpty(t *testing.T) {
	h := NewHistory(10)
	assert.True(t, h.Current().IsEmpty())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.True(t, h.Undo().IsEmpty())
	assert.True(t, h.Redo().IsEmpty())
}

func TestHistory_PushAdvancesCursor(t *testing.T) {
	h := NewHistory(10)
	h.Push(planWith("a"))
	h.Push(planWith("a", "b"))

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Cursor())
	assert.Len(t, h.Current().Ranges, 2)
}

func TestHistory_PushTruncatesRedoBranch(t *testing.T) {
	h := NewHistory(10)
	h.Push(planWith("a"))
	h.Push(planWith("a", "b"))
	h.Push(planWith("a", "b", "c"))

	h.Undo()
	h.Undo()
	require.Equal(t, 0, h.Cursor())

	h.Push(planWith("a", "x"))

	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())
	assert.Equal(t, "x", h.Current().Ranges[1].Label)
}

func TestHistory_EvictionShiftsCursor(t *testing.T) {
	h := NewHistory(3)
	h.Push(planWith("a"))
	h.Push(planWith("b"))
	h.Push(planWith("c"))
	h.Push(planWith("d"))

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Cursor())
	assert.Equal(t, "d", h.Current().Ranges[0].Label)

	// The oldest snapshot is gone: undoing to the bottom lands on "b".
	h.Undo()
	h.Undo()
	h.Undo()
	assert.Equal(t, 0, h.Cursor())
	assert.Equal(t, "b", h.Current().Ranges[0].Label)
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	h := NewHistory(10)
	p := planWith("a")
	h.Push(p)

	p.Ranges[0].Label = "tampered"
	assert.Equal(t, "a", h.Current().Ranges[0].Label)

	got := h.Current()
	got.Ranges[0].Label = "tampered again"
	assert.Equal(t, "a", h.Current().Ranges[0].Label)
}

func TestHistory_UndoRedoBounds(t *testing.T) {
	h := NewHistory(10)
	h.Push(Plan{})
	h.Push(planWith("a"))

	h.Undo()
	assert.Equal(t, 0, h.Cursor())
	h.Undo()
	assert.Equal(t, 0, h.Cursor(), "undo saturates at the first snapshot")

	h.Redo()
	assert.Equal(t, 1, h.Cursor())
	h.Redo()
	assert.Equal(t, 1, h.Cursor(), "redo saturates at the top")
}
