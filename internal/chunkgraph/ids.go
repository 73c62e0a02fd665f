package chunkgraph

import (
	"strconv"

	"github.com/jmylchreest/wbcore/internal/hashutil"
	"github.com/jmylchreest/wbcore/internal/ident"
)

// IDStrategy selects how SortedModuleIDs/SortedChunkIDs derive stable,
// deterministic short ids distinct from the in-process ukeys (spec.md §9
// design note: ukeys are process-local and must never leak into output;
// original_source/crates/rspack_ids/src/id_helpers.rs assigns output ids
// as a separate pass over the graph for the same reason).
type IDStrategy int

const (
	// IDNamed uses each module's own identifier/chunk name directly,
	// readable but longer (development builds).
	IDNamed IDStrategy = iota
	// IDDeterministic derives a short hash-based id from the identifier/chunk name,
	// stable across rebuilds that don't change the identifier set
	// (production builds wanting long-term caching).
	IDDeterministic
	// IDNumeric assigns small sequential integers in sorted-identifier
	// order, the smallest possible ids but least stable across rebuilds.
	IDNumeric
)

// SortedModuleIDs assigns an output id to every module reachable in graph
// (i.e. present in at least one chunk), iterating in sorted identifier
// order for determinism (spec.md §4.4 "Determinism").
func SortedModuleIDs(graph *Graph, strategy IDStrategy) map[ident.ModuleIdentifier]string {
	ids := sortedModuleIDs(graph)
	out := make(map[ident.ModuleIdentifier]string, len(ids))
	for i, id := range ids {
		out[id] = assignID(id.String(), i, strategy)
	}
	return out
}

// SortedChunkIDs assigns an output id to every chunk in graph, iterating
// in sorted ukey order for determinism.
func SortedChunkIDs(graph *Graph, strategy IDStrategy) map[ident.ChunkUkey]string {
	ukeys := graph.SortedChunkUkeys()
	out := make(map[ident.ChunkUkey]string, len(ukeys))
	for i, ukey := range ukeys {
		chunk, ok := graph.Chunk(ukey)
		if !ok {
			continue
		}
		key := chunk.Name
		if key == "" {
			key = ukey.String()
		}
		out[ukey] = assignID(key, i, strategy)
	}
	return out
}

func assignID(name string, index int, strategy IDStrategy) string {
	switch strategy {
	case IDNumeric:
		return strconv.Itoa(index)
	case IDDeterministic:
		return hashutil.Truncate(hashutil.Hash([]byte(name)), 8)
	default: // IDNamed
		return name
	}
}
