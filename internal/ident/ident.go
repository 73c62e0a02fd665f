// Package ident provides the opaque identifier types shared across the
// compilation pipeline: interned module identifiers, monotonic dependency
// ids, and per-compilation ukey counters for chunks and chunk groups.
//
// Cross-entity links in the pipeline are always ids, never pointers; the
// owning arena (ModuleGraph, ChunkGraph, ...) resolves an id on demand. See
// the data-model invariants in SPEC_FULL.md §3.
package ident

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// ModuleIdentifier is a stable, interned string identifying a module
// uniquely within a compilation. Two ModuleIdentifiers are equal iff their
// underlying strings are equal; interning makes that comparison O(1).
type ModuleIdentifier struct {
	s *string
}

// String returns the identifier's string form.
func (m ModuleIdentifier) String() string {
	if m.s == nil {
		return ""
	}
	return *m.s
}

// IsZero reports whether this is the zero ModuleIdentifier.
func (m ModuleIdentifier) IsZero() bool {
	return m.s == nil
}

// BuildModuleIdentifier concatenates a module's identity components in the
// exact, stable order required for the identity contract: resource path,
// then query, then fragment, then the loader chain (in pitch order), then
// layer. Changing this order changes module identity across rebuilds, so it
// must never vary.
func BuildModuleIdentifier(resourcePath, query, fragment string, loaderChain []string, layer string) string {
	var b strings.Builder
	b.WriteString(resourcePath)
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	if fragment != "" {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	for _, l := range loaderChain {
		b.WriteByte('!')
		b.WriteString(l)
	}
	if layer != "" {
		b.WriteString("|layer=")
		b.WriteString(layer)
	}
	return b.String()
}

// Table is a concurrency-safe string interning table. Equal strings interned
// through the same Table return the same ModuleIdentifier, and comparing two
// ModuleIdentifiers from that Table is a pointer comparison.
type Table struct {
	entries map[string]*string
	mu      sync.RWMutex
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*string)}
}

// Intern normalizes s to NFC (so platform-dependent Unicode decompositions
// of the same resource path never produce two distinct identities) and
// returns its interned ModuleIdentifier.
func (t *Table) Intern(s string) ModuleIdentifier {
	normalized := norm.NFC.String(s)

	t.mu.RLock()
	if p, ok := t.entries[normalized]; ok {
		t.mu.RUnlock()
		return ModuleIdentifier{s: p}
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.entries[normalized]; ok {
		return ModuleIdentifier{s: p}
	}
	p := new(string)
	*p = normalized
	t.entries[normalized] = p
	return ModuleIdentifier{s: p}
}

// Len returns the number of distinct interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// DependencyId is a monotonically-allocated handle for a Dependency, unique
// within a single Compilation.
type DependencyId uint32

// String implements fmt.Stringer.
func (d DependencyId) String() string {
	return fmt.Sprintf("dep#%d", uint32(d))
}

// BlockIdentifier is a monotonically-allocated handle for an
// AsyncDependenciesBlock, unique within a single Compilation.
type BlockIdentifier uint32

func (b BlockIdentifier) String() string {
	return fmt.Sprintf("block#%d", uint32(b))
}

// ChunkUkey is a monotonically-allocated handle for a Chunk.
type ChunkUkey uint32

func (c ChunkUkey) String() string {
	return fmt.Sprintf("chunk#%d", uint32(c))
}

// ChunkGroupUkey is a monotonically-allocated handle for a ChunkGroup.
type ChunkGroupUkey uint32

func (c ChunkGroupUkey) String() string {
	return fmt.Sprintf("group#%d", uint32(c))
}
