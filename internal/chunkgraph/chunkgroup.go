package chunkgraph

import "github.com/jmylchreest/wbcore/internal/ident"

// ChunkGroup is an ordered set of Chunks produced for one entrypoint or
// one async-import boundary (spec.md §4.4).
type ChunkGroup struct {
	Ukey ident.ChunkGroupUkey
	Kind ChunkGroupKind
	Name string

	Chunks   []ident.ChunkUkey
	Parents  []ident.ChunkGroupUkey
	Children []ident.ChunkGroupUkey

	// EntryModule is set only for Entrypoint-kind groups.
	EntryModule ident.ModuleIdentifier

	// preOrder/postOrder record each module's traversal index within
	// this group, for deterministic iteration order later (spec.md
	// §4.4 step 2 "Track per-module pre-order and post-order indices").
	preOrder  map[ident.ModuleIdentifier]int
	postOrder map[ident.ModuleIdentifier]int
}

func newChunkGroup(ukey ident.ChunkGroupUkey, kind ChunkGroupKind) *ChunkGroup {
	return &ChunkGroup{
		Ukey:      ukey,
		Kind:      kind,
		preOrder:  make(map[ident.ModuleIdentifier]int),
		postOrder: make(map[ident.ModuleIdentifier]int),
	}
}

// AddChunk appends a chunk to this group, if not already present.
func (g *ChunkGroup) AddChunk(c ident.ChunkUkey) {
	for _, existing := range g.Chunks {
		if existing == c {
			return
		}
	}
	g.Chunks = append(g.Chunks, c)
}

// PreOrderIndex returns the pre-order traversal index recorded for a
// module, and whether one was recorded.
func (g *ChunkGroup) PreOrderIndex(m ident.ModuleIdentifier) (int, bool) {
	i, ok := g.preOrder[m]
	return i, ok
}

// PostOrderIndex returns the post-order traversal index recorded for a
// module, and whether one was recorded.
func (g *ChunkGroup) PostOrderIndex(m ident.ModuleIdentifier) (int, bool) {
	i, ok := g.postOrder[m]
	return i, ok
}

// hasAncestor reports whether `other` is an ancestor chunk group of this
// one (reachable through Parents), used by the dedup pass (spec.md §4.4 step 4).
// A group is its own ancestor for this purpose (reflexive).
func (g *ChunkGroup) hasAncestor(other ident.ChunkGroupUkey, graph *Graph) bool {
	if g.Ukey == other {
		return true
	}
	visited := map[ident.ChunkGroupUkey]bool{g.Ukey: true}
	queue := append([]ident.ChunkGroupUkey(nil), g.Parents...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == other {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if parent, ok := graph.Group(cur); ok {
			queue = append(queue, parent.Parents...)
		}
	}
	return false
}
