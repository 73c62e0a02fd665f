package chunkgraph

import (
	"sort"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// Chunk is one output unit: a set of modules sharing a runtime, destined
// for one or more emitted files (spec.md §4.4, §4.7).
type Chunk struct {
	Ukey ident.ChunkUkey

	// Name is the user- or block-hinted chunk name, empty for chunks
	// that only ever get an id (spec.md §4.4 step 3 "reuse by name").
	Name string

	Runtime runtimespec.Spec

	// IsRuntimeChunk marks the chunk that carries the bootstrap runtime
	// for an entrypoint (spec.md §4.4 step 1 "its runtime chunk").
	IsRuntimeChunk bool

	modules map[ident.ModuleIdentifier]bool

	// ContentHash is filled in by internal/render after rendering
	// (spec.md §4.7); kept here so the chunk graph need not be consulted
	// again once hashing is done.
	ContentHash map[string]string // sourceType -> hash
	Files       []string
}

func newChunk(ukey ident.ChunkUkey) *Chunk {
	return &Chunk{
		Ukey:        ukey,
		modules:     make(map[ident.ModuleIdentifier]bool),
		ContentHash: make(map[string]string),
	}
}

// AddModule registers a module as a member of this chunk.
func (c *Chunk) AddModule(id ident.ModuleIdentifier) { c.modules[id] = true }

// RemoveModule drops a module from this chunk (spec.md §4.4 step 4
// dedup, step 5 split-chunks extraction).
func (c *Chunk) RemoveModule(id ident.ModuleIdentifier) { delete(c.modules, id) }

// HasModule reports whether id is a member of this chunk.
func (c *Chunk) HasModule(id ident.ModuleIdentifier) bool { return c.modules[id] }

// ModuleCount returns the number of modules currently in this chunk.
func (c *Chunk) ModuleCount() int { return len(c.modules) }

// SortedModules returns this chunk's modules in deterministic
// (lexicographic identifier) order (spec.md §4.4 "Determinism").
func (c *Chunk) SortedModules() []ident.ModuleIdentifier {
	ids := make([]ident.ModuleIdentifier, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
