// Package runtimespec defines RuntimeSpec (spec.md §3 data model): a set
// of runtime names compared by content and usable as a map key, shared by
// the exports-info engine, code generation, runtime-requirement
// resolution, and chunk rendering.
package runtimespec

import "sort"

// Spec is an immutable set of runtime names, compared by content. Two
// Specs with the same names (in any construction order) produce the same
// Key and are therefore interchangeable as map keys.
type Spec struct {
	key   string
	names []string
}

// New builds a Spec from a (possibly unsorted, possibly duplicated) list
// of runtime names.
func New(names ...string) Spec {
	if len(names) == 0 {
		return Spec{}
	}
	dedup := make(map[string]struct{}, len(names))
	for _, n := range names {
		dedup[n] = struct{}{}
	}
	sorted := make([]string, 0, len(dedup))
	for n := range dedup {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	return Spec{key: join(sorted), names: sorted}
}

// Single returns a Spec containing exactly one runtime name.
func Single(name string) Spec { return New(name) }

// Key returns the canonical string form, suitable as a map key.
func (s Spec) Key() string { return s.key }

// Names returns the sorted runtime names.
func (s Spec) Names() []string { return s.names }

// IsEmpty reports whether the spec has no runtime names (the
// "runtime-agnostic" case some code-generation templates use).
func (s Spec) IsEmpty() bool { return len(s.names) == 0 }

// Contains reports whether name is one of this Spec's runtimes.
func (s Spec) Contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Union returns a new Spec containing the names of both operands.
func (s Spec) Union(other Spec) Spec {
	return New(append(append([]string{}, s.names...), other.names...)...)
}

func join(names []string) string {
	if len(names) == 0 {
		return ""
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "\x00" + n
	}
	return out
}
