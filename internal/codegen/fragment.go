package codegen

import (
	"sort"
	"strings"
)

// InitFragment is a piece of code a dependency template places at a
// module's top or bottom rather than inline at a source range (spec.md §3
// data model table: "stage (u32), position (u32), source, end-source?";
// §4.5 "emission of an init fragment prepended/appended to the module at a
// specific stage").
type InitFragment struct {
	Stage uint32
	// Position breaks ties within a stage (lower first); consecutive
	// fragments with equal (Stage, Position) keep insertion order, per
	// spec.md §3's InitFragment invariant.
	Position uint32
	// Source is emitted before the module body.
	Source string
	// EndSource, if non-empty, is emitted after the module body, paired
	// with Source the way a try/finally or IIFE wrapper needs matching
	// open/close pieces (e.g. CSS init's "insert" call paired with a
	// cleanup on HMR dispose).
	EndSource string
}

// FragmentList collects InitFragments in insertion order and renders them
// sorted by (Stage, Position), a stable sort so equal-key fragments keep
// the order they were added.
type FragmentList struct {
	fragments []InitFragment
}

// NewFragmentList returns an empty FragmentList.
func NewFragmentList() *FragmentList { return &FragmentList{} }

// Add appends f, to be rendered in its (Stage, Position) slot.
func (fl *FragmentList) Add(f InitFragment) {
	fl.fragments = append(fl.fragments, f)
}

// Sorted returns every fragment in (Stage, Position, insertion) order.
func (fl *FragmentList) Sorted() []InitFragment {
	out := make([]InitFragment, len(fl.fragments))
	copy(out, fl.fragments)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// Render wraps body with every fragment's Source prepended (in sorted
// order) and every fragment's EndSource appended (in reverse sorted order,
// so a fragment's close pairs with its own open innermost-first).
func (fl *FragmentList) Render(body string) string {
	sorted := fl.Sorted()
	if len(sorted) == 0 {
		return body
	}

	var b strings.Builder
	for _, f := range sorted {
		if f.Source != "" {
			b.WriteString(f.Source)
			b.WriteByte('\n')
		}
	}
	b.WriteString(body)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].EndSource != "" {
			b.WriteByte('\n')
			b.WriteString(sorted[i].EndSource)
		}
	}
	return b.String()
}
