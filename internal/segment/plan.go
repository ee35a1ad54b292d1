package segment

// palette is the fixed color cycle assigned to new ranges by position.
var palette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2",
	"#59A14F", "#EDC948", "#B07AA1", "#9C755F",
}

// PaletteColor returns the default color for the range at position n.
func PaletteColor(n int) string {
	if n < 0 {
		n = 0
	}
	return palette[n%len(palette)]
}

// PaletteSize reports how many colors the cycle holds.
func PaletteSize() int { return len(palette) }

// Range is one planned output: an inclusive page span with a display label
// and a palette color. Start and End are zero-based.
type Range struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// PageCount returns the number of pages the range covers.
func (r Range) PageCount() int { return r.End - r.Start + 1 }

// Pages expands the range into its page indexes in ascending order.
func (r Range) Pages() []int {
	pages := make([]int, 0, r.PageCount())
	for p := r.Start; p <= r.End; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Plan is the ordered set of ranges the user has built. Ranges may overlap
// and duplicate freely; order is insertion order.
type Plan struct {
	Ranges []Range `json:"ranges"`
}

// Clone returns a deep copy. Range has value semantics, so copying the slice
// is enough.
func (p Plan) Clone() Plan {
	if len(p.Ranges) == 0 {
		return Plan{}
	}
	out := make([]Range, len(p.Ranges))
	copy(out, p.Ranges)
	return Plan{Ranges: out}
}

func (p Plan) IsEmpty() bool { return len(p.Ranges) == 0 }

func (p Plan) indexOf(id string) int {
	for i, r := range p.Ranges {
		if r.ID == id {
			return i
		}
	}
	return -1
}
