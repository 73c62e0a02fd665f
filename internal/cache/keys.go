package cache

import (
	"sort"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/hashutil"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// ComputeModuleGraphKey folds a module's own build-output hash (its
// loader/file/deps hashes, whichever combination BuildInfo recorded) with
// the sorted set of its outgoing dependency ids (spec.md §9: "module's
// build output hash ∪ outgoing dependency IDs"). The dependency ids
// themselves, not their resolved targets, are what's hashed: a
// re-resolution to a different target without the dependency set itself
// changing is exactly the case the module-graph key is meant to miss, and
// is instead recorded by that dependency's own target module's key chain.
func ComputeModuleGraphKey(mod modulegraph.Module) string {
	info := mod.Info()
	parts := []string{info.FileHash, info.LoaderHash, info.DepsHash}

	deps := append([]ident.DependencyId(nil), mod.Dependencies()...)
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	for _, d := range deps {
		parts = append(parts, d.String())
	}
	return hashutil.Combine(parts...)
}

// ComputeChunkGraphKey folds id with the sorted set of chunks id is
// directly assigned to in cgraph, plus the chunks reachable through id's
// async blocks (spec.md §9: "module id ∪ assigned chunk ids ∪
// block-chunk-group chunk ids"). The block-originated blocks' own target
// modules' assigned chunks stand in for "block-chunk-group chunk ids":
// chunkgraph.Builder does not expose a block-identifier-to-chunk-group
// index, but a block's chunk-group membership is fully determined by
// where its own dependency targets ended up, so folding those chunks in
// is equivalent for invalidation purposes.
func ComputeChunkGraphKey(id ident.ModuleIdentifier, mod modulegraph.Module, mgraph *modulegraph.Graph, cgraph *chunkgraph.Graph) string {
	parts := []string{id.String()}
	parts = append(parts, sortedChunkStrings(cgraph.ChunksContainingModule(id))...)

	for _, blockID := range mod.Blocks() {
		block, ok := mgraph.Block(blockID)
		if !ok {
			continue
		}
		for _, depID := range block.Deps {
			conn, ok := mgraph.Connection(depID)
			if !ok {
				continue
			}
			parts = append(parts, sortedChunkStrings(cgraph.ChunksContainingModule(conn.Target))...)
		}
	}
	return hashutil.Combine(parts...)
}

func sortedChunkStrings(ukeys []ident.ChunkUkey) []string {
	out := make([]string, len(ukeys))
	for i, u := range ukeys {
		out[i] = u.String()
	}
	sort.Strings(out)
	return out
}
