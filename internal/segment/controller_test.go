package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, pages int) *Controller {
	t.Helper()
	ps, err := NewPageSet(pages)
	require.NoError(t, err)
	return NewController(ps, DefaultHistoryLimit)
}

func TestController_AddRange_Defaults(t *testing.T) {
	c := newTestController(t, 10)

	r1, err := c.AddRange(0, 2)
	require.NoError(t, err)
	r2, err := c.AddRange(3, 3)
	require.NoError(t, err)

	assert.NotEmpty(t, r1.ID)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, "Part 1", r1.Label)
	assert.Equal(t, "Part 2", r2.Label)
	assert.Equal(t, PaletteColor(0), r1.Color)
	assert.Equal(t, PaletteColor(1), r2.Color)
	assert.Equal(t, 1, r2.PageCount(), "single page range is valid")
}

func TestController_AddRange_ColorWrapsPalette(t *testing.T) {
	c := newTestController(t, 100)

	var last Range
	for i := 0; i <= PaletteSize(); i++ {
		r, err := c.AddRange(i, i)
		require.NoError(t, err)
		last = r
	}
	assert.Equal(t, PaletteColor(0), last.Color)
}

func TestController_AddRange_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		end    int
		reason ValidationReason
	}{
		{"negative start", -1, 3, ReasonOutOfBounds},
		{"end past count", 0, 10, ReasonOutOfBounds},
		{"both past count", 11, 12, ReasonOutOfBounds},
		{"inverted", 5, 2, ReasonInvertedBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, 10)

			_, err := c.AddRange(tt.start, tt.end)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
			assert.True(t, IsValidation(err))

			assert.True(t, c.Plan().IsEmpty(), "plan must be untouched")
			assert.False(t, c.CanUndo(), "no snapshot must be pushed")
			assert.Equal(t, 1, c.history.Len())
		})
	}
}

func TestController_RemoveRange(t *testing.T) {
	c := newTestController(t, 10)
	r1, _ := c.AddRange(0, 1)
	r2, _ := c.AddRange(2, 3)
	r3, _ := c.AddRange(4, 5)

	require.True(t, c.RemoveRange(r2.ID))

	plan := c.Plan()
	require.Len(t, plan.Ranges, 2)
	assert.Equal(t, r1.ID, plan.Ranges[0].ID)
	assert.Equal(t, r3.ID, plan.Ranges[1].ID)
}

func TestController_RemoveRange_UnknownIDIsNoop(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 1)
	before := c.history.Len()

	assert.False(t, c.RemoveRange("nope"))
	assert.Equal(t, before, c.history.Len(), "no snapshot for a no-op")
	assert.Len(t, c.Plan().Ranges, 1)
}

func TestController_RelabelRecolor(t *testing.T) {
	c := newTestController(t, 10)
	r, _ := c.AddRange(0, 4)

	require.True(t, c.RelabelRange(r.ID, "Chapter One"))
	require.True(t, c.RecolorRange(r.ID, "#000000"))

	plan := c.Plan()
	assert.Equal(t, "Chapter One", plan.Ranges[0].Label)
	assert.Equal(t, "#000000", plan.Ranges[0].Color)

	assert.False(t, c.RelabelRange("nope", "x"))
	assert.False(t, c.RecolorRange("nope", "#fff"))
}

func TestController_UndoRedo_RoundTrip(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 1)
	c.AddRange(2, 3)

	plan := c.Undo()
	require.Len(t, plan.Ranges, 1)

	plan = c.Redo()
	require.Len(t, plan.Ranges, 2)

	// Back to the seeded empty plan, then undo saturates.
	c.Undo()
	plan = c.Undo()
	assert.True(t, plan.IsEmpty())
	plan = c.Undo()
	assert.True(t, plan.IsEmpty(), "undo at the first position is a no-op")
	assert.False(t, c.CanUndo())
	assert.True(t, c.CanRedo())
}

func TestController_RedoAtTopIsNoop(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 1)

	plan := c.Redo()
	require.Len(t, plan.Ranges, 1)
	assert.False(t, c.CanRedo())
}

func TestController_MutationAfterUndoDiscardsRedo(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 1)
	c.AddRange(2, 3)
	c.Undo()
	require.True(t, c.CanRedo())

	c.AddRange(4, 5)

	assert.False(t, c.CanRedo(), "redo branch must be discarded")
	plan := c.Plan()
	require.Len(t, plan.Ranges, 2)
	assert.Equal(t, 4, plan.Ranges[1].Start)
}

func TestController_SnapshotIsolation(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 1)

	stolen := c.Plan()
	stolen.Ranges[0].Label = "tampered"

	assert.Equal(t, "Part 1", c.Plan().Ranges[0].Label)

	// Undo back to empty and redo must restore the original label too.
	c.Undo()
	plan := c.Redo()
	assert.Equal(t, "Part 1", plan.Ranges[0].Label)
}

func TestController_ClearRanges(t *testing.T) {
	c := newTestController(t, 10)
	assert.False(t, c.ClearRanges(), "clearing an empty plan is a no-op")

	c.AddRange(0, 1)
	c.AddRange(2, 3)
	require.True(t, c.ClearRanges())
	assert.True(t, c.Plan().IsEmpty())

	plan := c.Undo()
	assert.Len(t, plan.Ranges, 2, "clear is one undoable step")
}

func TestController_ReplacePlan_Atomic(t *testing.T) {
	c := newTestController(t, 10)
	c.AddRange(0, 9)
	before := c.history.Len()

	_, err := c.ReplacePlan([]Range{
		{Start: 0, End: 3, Label: "ok"},
		{Start: 8, End: 12, Label: "bad"},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	plan := c.Plan()
	require.Len(t, plan.Ranges, 1, "plan must be untouched")
	assert.Equal(t, 9, plan.Ranges[0].End)
	assert.Equal(t, before, c.history.Len(), "cursor and history must be untouched")
}

func TestController_ReplacePlan_FillsDefaults(t *testing.T) {
	c := newTestController(t, 20)

	plan, err := c.ReplacePlan([]Range{
		{Start: 0, End: 4, Label: "Intro"},
		{Start: 5, End: 19},
	})
	require.NoError(t, err)
	require.Len(t, plan.Ranges, 2)
	assert.Equal(t, "Intro", plan.Ranges[0].Label)
	assert.Equal(t, "Part 2", plan.Ranges[1].Label)
	assert.Equal(t, PaletteColor(1), plan.Ranges[1].Color)
	assert.NotEmpty(t, plan.Ranges[0].ID)

	// One snapshot for the whole swap.
	undone := c.Undo()
	assert.True(t, undone.IsEmpty())
}

func TestController_View(t *testing.T) {
	c := newTestController(t, 5)
	c.AddRange(1, 3)
	c.RotatePage(2)

	v := c.View()
	assert.Equal(t, 5, v.PageCount)
	assert.Equal(t, []int{0, 0, 90, 0, 0}, v.Rotations)
	assert.Len(t, v.Plan.Ranges, 1)
	assert.True(t, v.CanUndo)
	assert.False(t, v.CanRedo)
	assert.Equal(t, 2, v.Snapshots)
	assert.Equal(t, 1, v.Cursor)
}
