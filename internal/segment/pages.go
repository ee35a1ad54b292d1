package segment

import "fmt"

// PageSet holds the fixed page count of the loaded document plus per-page
// rotation state. The count never changes for the lifetime of a session;
// rotations do. Page indexes are zero-based everywhere in this package.
type PageSet struct {
	pageCount int
	rotations []int
}

// NewPageSet creates a PageSet with all rotations at 0 degrees.
func NewPageSet(pageCount int) (*PageSet, error) {
	if pageCount <= 0 {
		return nil, fmt.Errorf("page count must be positive, got %d", pageCount)
	}
	return &PageSet{
		pageCount: pageCount,
		rotations: make([]int, pageCount),
	}, nil
}

func (p *PageSet) PageCount() int { return p.pageCount }

// Rotation returns the stored rotation for page, or 0 when the index is out
// of range.
func (p *PageSet) Rotation(page int) int {
	if page < 0 || page >= p.pageCount {
		return 0
	}
	return p.rotations[page]
}

// Rotations returns a copy of the per-page rotation table.
func (p *PageSet) Rotations() []int {
	out := make([]int, len(p.rotations))
	copy(out, p.rotations)
	return out
}

// Rotate advances the page's rotation by 90 degrees clockwise, wrapping to 0
// after 270. Returns the new rotation.
func (p *PageSet) Rotate(page int) (int, error) {
	if page < 0 || page >= p.pageCount {
		return 0, &ValidationError{Reason: ReasonOutOfBounds, Start: page, End: page, PageCount: p.pageCount}
	}
	p.rotations[page] = (p.rotations[page] + 90) % 360
	return p.rotations[page], nil
}

// SetRotation stores an absolute rotation for page. Only quarter turns are
// accepted.
func (p *PageSet) SetRotation(page, deg int) error {
	if page < 0 || page >= p.pageCount {
		return &ValidationError{Reason: ReasonOutOfBounds, Start: page, End: page, PageCount: p.pageCount}
	}
	switch deg {
	case 0, 90, 180, 270:
		p.rotations[page] = deg
		return nil
	default:
		return fmt.Errorf("rotation must be 0, 90, 180 or 270, got %d", deg)
	}
}
