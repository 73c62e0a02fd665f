// Package cache implements the incremental rebuild bookkeeping between
// successive Compilations: an UnaffectedModulesCache keyed by module
// identity, recomputed in parallel after each build, and consulted before
// the next one to skip re-building and re-rendering modules whose inputs
// provably did not change (spec.md §9).
package cache

import (
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// CacheEntry is one module's invalidation fingerprint as of the end of a
// build: a pair of keys a following build recomputes and compares before
// deciding whether the module can be skipped.
type CacheEntry struct {
	// ModuleGraphKey folds the module's own build-output hash with its
	// outgoing dependency ids. An unchanged ModuleGraphKey means the
	// module's build (loader + parse) can be skipped entirely.
	ModuleGraphKey string
	// ChunkGraphKey additionally folds in the set of chunks the module
	// was assigned to. An unchanged ChunkGraphKey on top of an unchanged
	// ModuleGraphKey means codegen and rendering can be skipped too, not
	// just the build.
	ChunkGraphKey string
}

// Equal reports whether two entries carry the same keys.
func (e CacheEntry) Equal(other CacheEntry) bool {
	return e.ModuleGraphKey == other.ModuleGraphKey && e.ChunkGraphKey == other.ChunkGraphKey
}

// UnaffectedModulesCache is a concurrent map from module identity to its
// last-known CacheEntry. A fresh Compilation loads one (from disk, via
// internal/cachewire, or empty for a cold build), consults it while
// deciding what to rebuild, and overwrites it with freshly recomputed
// entries once the build completes.
type UnaffectedModulesCache struct {
	mu      sync.RWMutex
	entries map[ident.ModuleIdentifier]CacheEntry
}

// NewUnaffectedModulesCache returns an empty cache, equivalent to a cold
// build with no prior snapshot.
func NewUnaffectedModulesCache() *UnaffectedModulesCache {
	return &UnaffectedModulesCache{entries: make(map[ident.ModuleIdentifier]CacheEntry)}
}

// Get returns the previously recorded entry for id, if any.
func (c *UnaffectedModulesCache) Get(id ident.ModuleIdentifier) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Set records (or replaces) the entry for id.
func (c *UnaffectedModulesCache) Set(id ident.ModuleIdentifier, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = entry
}

// Delete removes id's entry, used when a module is pruned from the graph
// between builds (e.g. an import was removed).
func (c *UnaffectedModulesCache) Delete(id ident.ModuleIdentifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of entries currently tracked.
func (c *UnaffectedModulesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a defensive copy of every tracked entry, the shape
// internal/cachewire persists to disk.
func (c *UnaffectedModulesCache) Snapshot() map[ident.ModuleIdentifier]CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[ident.ModuleIdentifier]CacheEntry, len(c.entries))
	for id, e := range c.entries {
		out[id] = e
	}
	return out
}

// Restore replaces the cache's contents with a previously captured
// snapshot, used when loading from an on-disk file at process start.
func (c *UnaffectedModulesCache) Restore(snapshot map[ident.ModuleIdentifier]CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[ident.ModuleIdentifier]CacheEntry, len(snapshot))
	for id, e := range snapshot {
		c.entries[id] = e
	}
}

// BuildDecision is what Decide resolves a module to.
type BuildDecision int

const (
	// DecisionRebuild means the module's ModuleGraphKey changed (or it
	// has no prior entry): loader, parse and codegen all re-run.
	DecisionRebuild BuildDecision = iota
	// DecisionRecodegen means the module's ModuleGraphKey matched but its
	// ChunkGraphKey did not: the build step is skipped but codegen and
	// rendering still run, since the module moved to a different chunk
	// set.
	DecisionRecodegen
	// DecisionSkip means both keys matched: nothing needs to happen for
	// this module this build.
	DecisionSkip
)

// Decide compares a freshly computed entry against whatever this cache has
// on record for id, returning which phases a following build may skip
// (spec.md §9 "modules whose module-graph key matches are skipped for
// build; modules whose chunk-graph key additionally matches are skipped
// for codegen + rendering").
func (c *UnaffectedModulesCache) Decide(id ident.ModuleIdentifier, fresh CacheEntry) BuildDecision {
	prev, ok := c.Get(id)
	if !ok || prev.ModuleGraphKey != fresh.ModuleGraphKey {
		return DecisionRebuild
	}
	if prev.ChunkGraphKey != fresh.ChunkGraphKey {
		return DecisionRecodegen
	}
	return DecisionSkip
}
