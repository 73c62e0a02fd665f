package codegen

import (
	"sort"
	"strings"

	"github.com/jmylchreest/wbcore/pkg/rangeset"
)

// replacement is one pending range rewrite over a ReplaceSource's original
// bytes.
type replacement struct {
	start, end int
	text       string
}

// ReplaceSource accumulates non-overlapping range replacements over an
// original byte slice and renders the result in a single forward pass —
// the teacher's pkg/diskslice streaming-append idiom ("build the output
// incrementally in one pass" rather than repeated string surgery),
// generalized from appending items to appending (range, text) rewrites and
// sorting once before the single render pass.
type ReplaceSource struct {
	original     []byte
	replacements []replacement
}

// NewReplaceSource wraps original for range-replacement rewriting.
func NewReplaceSource(original []byte) *ReplaceSource {
	return &ReplaceSource{original: original}
}

// Replace schedules replacing original[start:end] with text. Multiple
// calls may be made in any order; overlap is only detected at Render time
// so a template can freely queue replacements without needing to know
// about sibling templates' ranges.
func (rs *ReplaceSource) Replace(start, end int, text string) {
	rs.replacements = append(rs.replacements, replacement{start: start, end: end, text: text})
}

// Render applies every scheduled replacement in ascending range order,
// returning an *ErrOverlap-wrapping error if any two replacements overlap
// (spec.md §4.5 "Templates are pure functions" requires deterministic,
// conflict-free composition).
func (rs *ReplaceSource) Render() (string, error) {
	set := rangeset.New()
	for _, r := range rs.replacements {
		set.Add(rangeset.Range{Start: r.start, End: r.end})
	}
	if err := set.CheckNoOverlap(); err != nil {
		return "", err
	}

	sorted := make([]replacement, len(rs.replacements))
	copy(sorted, rs.replacements)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var b strings.Builder
	cursor := 0
	for _, r := range sorted {
		if r.start > cursor {
			b.Write(rs.original[cursor:r.start])
		}
		b.WriteString(r.text)
		cursor = r.end
	}
	if cursor < len(rs.original) {
		b.Write(rs.original[cursor:])
	}
	return b.String(), nil
}
