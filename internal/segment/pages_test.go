package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageSet_RejectsNonPositiveCount(t *testing.T) {
	_, err := NewPageSet(0)
	assert.Error(t, err)
	_, err = NewPageSet(-3)
	assert.Error(t, err)
}

func TestPageSet_RotateCycles(t *testing.T) {
	ps, err := NewPageSet(3)
	require.NoError(t, err)

	want := []int{90, 180, 270, 0}
	for _, deg := range want {
		got, err := ps.Rotate(1)
		require.NoError(t, err)
		assert.Equal(t, deg, got)
	}
	assert.Equal(t, 0, ps.Rotation(0), "other pages untouched")
}

func TestPageSet_RotateOutOfRange(t *testing.T) {
	ps, _ := NewPageSet(3)

	_, err := ps.Rotate(3)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = ps.Rotate(-1)
	assert.Error(t, err)
}

func TestPageSet_SetRotation(t *testing.T) {
	ps, _ := NewPageSet(3)

	require.NoError(t, ps.SetRotation(2, 270))
	assert.Equal(t, 270, ps.Rotation(2))

	assert.Error(t, ps.SetRotation(2, 45))
	assert.Error(t, ps.SetRotation(5, 90))
	assert.Equal(t, 270, ps.Rotation(2), "invalid input leaves state alone")
}

func TestPageSet_RotationsIsACopy(t *testing.T) {
	ps, _ := NewPageSet(2)
	ps.SetRotation(0, 90)

	rot := ps.Rotations()
	rot[0] = 180
	assert.Equal(t, 90, ps.Rotation(0))
}
