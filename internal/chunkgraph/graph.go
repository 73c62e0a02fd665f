package chunkgraph

import (
	"sort"
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// Graph is the arena owning every Chunk and ChunkGroup for one
// Compilation, plus the reverse module -> owning-chunks index (spec.md
// §9 "cross-entity links are ids, never pointers").
type Graph struct {
	mu       sync.RWMutex
	chunks   map[ident.ChunkUkey]*Chunk
	groups   map[ident.ChunkGroupUkey]*ChunkGroup
	byModule map[ident.ModuleIdentifier]map[ident.ChunkUkey]bool

	counters *ident.Counters
}

// NewGraph creates an empty Graph backed by counters for fresh
// Chunk/ChunkGroup ids.
func NewGraph(counters *ident.Counters) *Graph {
	return &Graph{
		chunks:   make(map[ident.ChunkUkey]*Chunk),
		groups:   make(map[ident.ChunkGroupUkey]*ChunkGroup),
		byModule: make(map[ident.ModuleIdentifier]map[ident.ChunkUkey]bool),
		counters: counters,
	}
}

// NewChunk allocates and registers a fresh Chunk.
func (g *Graph) NewChunk() *Chunk {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := newChunk(g.counters.NextChunkUkey())
	g.chunks[c.Ukey] = c
	return c
}

// NewChunkGroup allocates and registers a fresh ChunkGroup.
func (g *Graph) NewChunkGroup(kind ChunkGroupKind) *ChunkGroup {
	g.mu.Lock()
	defer g.mu.Unlock()
	group := newChunkGroup(g.counters.NextGroupUkey(), kind)
	g.groups[group.Ukey] = group
	return group
}

// Chunk resolves a ChunkUkey to its Chunk.
func (g *Graph) Chunk(ukey ident.ChunkUkey) (*Chunk, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.chunks[ukey]
	return c, ok
}

// Group resolves a ChunkGroupUkey to its ChunkGroup.
func (g *Graph) Group(ukey ident.ChunkGroupUkey) (*ChunkGroup, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	group, ok := g.groups[ukey]
	return group, ok
}

// ConnectModule records that module belongs to chunk, both on the Chunk
// itself and in the reverse index used by the dedup pass.
func (g *Graph) ConnectModule(chunk ident.ChunkUkey, module ident.ModuleIdentifier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.chunks[chunk]; ok {
		c.AddModule(module)
	}
	if g.byModule[module] == nil {
		g.byModule[module] = make(map[ident.ChunkUkey]bool)
	}
	g.byModule[module][chunk] = true
}

// DisconnectModule is the inverse of ConnectModule (spec.md §4.4 step 4
// dedup, step 5 split-chunks extraction).
func (g *Graph) DisconnectModule(chunk ident.ChunkUkey, module ident.ModuleIdentifier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.chunks[chunk]; ok {
		c.RemoveModule(module)
	}
	if set, ok := g.byModule[module]; ok {
		delete(set, chunk)
		if len(set) == 0 {
			delete(g.byModule, module)
		}
	}
}

// ChunksContainingModule returns every ChunkUkey a module currently
// belongs to, sorted for determinism.
func (g *Graph) ChunksContainingModule(module ident.ModuleIdentifier) []ident.ChunkUkey {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set := g.byModule[module]
	out := make([]ident.ChunkUkey, 0, len(set))
	for ukey := range set {
		out = append(out, ukey)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedChunkUkeys returns every registered chunk, sorted by ukey (spec.md
// §4.4 "Determinism").
func (g *Graph) SortedChunkUkeys() []ident.ChunkUkey {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ident.ChunkUkey, 0, len(g.chunks))
	for ukey := range g.chunks {
		out = append(out, ukey)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReachableChunks returns every chunk belonging to root or any chunk group
// reachable from root through Children, sorted for deterministic iteration.
// This is the chunk set a tree-wide ("entry-runtime") requirements lift
// unions over (spec.md §4.6 step 3).
func (g *Graph) ReachableChunks(root ident.ChunkGroupUkey) []ident.ChunkUkey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seenGroups := map[ident.ChunkGroupUkey]bool{}
	seenChunks := map[ident.ChunkUkey]bool{}
	var walk func(ukey ident.ChunkGroupUkey)
	walk = func(ukey ident.ChunkGroupUkey) {
		if seenGroups[ukey] {
			return
		}
		seenGroups[ukey] = true
		group, ok := g.groups[ukey]
		if !ok {
			return
		}
		for _, c := range group.Chunks {
			seenChunks[c] = true
		}
		for _, child := range group.Children {
			walk(child)
		}
	}
	walk(root)

	out := make([]ident.ChunkUkey, 0, len(seenChunks))
	for c := range seenChunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GroupOwningChunk returns the lowest-ukey ChunkGroup that contains chunk,
// if any. A runtime chunk shared by several entries is added to each of
// their groups via AddChunk; only the first of those groups is returned.
func (g *Graph) GroupOwningChunk(chunk ident.ChunkUkey) (*ChunkGroup, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ukeys := make([]ident.ChunkGroupUkey, 0, len(g.groups))
	for ukey := range g.groups {
		ukeys = append(ukeys, ukey)
	}
	sort.Slice(ukeys, func(i, j int) bool { return ukeys[i] < ukeys[j] })
	for _, ukey := range ukeys {
		group := g.groups[ukey]
		for _, c := range group.Chunks {
			if c == chunk {
				return group, true
			}
		}
	}
	return nil, false
}

// SortedGroupUkeys returns every registered chunk group, sorted by ukey.
func (g *Graph) SortedGroupUkeys() []ident.ChunkGroupUkey {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ident.ChunkGroupUkey, 0, len(g.groups))
	for ukey := range g.groups {
		out = append(out, ukey)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
