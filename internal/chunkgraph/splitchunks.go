package chunkgraph

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/pkg/bytesize"
)

// CacheGroup is one split-chunks extraction rule (spec.md §4.4 step 5):
// modules matching Test and satisfying the size/count thresholds are
// pulled out of their originating chunks into a new, shared chunk. Test is
// the only selector; there is no separate module-type or layer filter.
type CacheGroup struct {
	Name string

	// Test reports whether a module is a candidate for this cache
	// group. Nil matches every module.
	Test func(modulegraph.Module) bool

	// MinChunks is the minimum number of distinct chunks a module must
	// already appear in before it is considered for extraction (sharing
	// requires at least this many consumers).
	MinChunks int

	// MinSize is the minimum combined source size the extracted set must
	// reach to be worth splitting out as its own chunk, in the same
	// bytesize.Size unit config.SplitChunksConfig.MinSize/MaxSize parse
	// "20KB"-style config values into (internal/config/bytesize.go).
	MinSize bytesize.Size
}

// SplitChunksOptions configures the whole split-chunks pass.
type SplitChunksOptions struct {
	CacheGroups []CacheGroup
}

// ApplySplitChunks runs spec.md §4.4 step 5 after Build has produced the
// base chunk graph: for each cache group, select matching modules that
// meet MinChunks/MinSize, extract them into one new chunk per cache group,
// and connect that chunk to every chunk group that previously contained
// any of the extracted modules as a child (so it always loads alongside
// whichever entry/async chunk needed it).
func ApplySplitChunks(mgraph *modulegraph.Graph, graph *Graph, opts SplitChunksOptions) {
	for _, cg := range opts.CacheGroups {
		applyCacheGroup(mgraph, graph, cg)
	}
}

func applyCacheGroup(mgraph *modulegraph.Graph, graph *Graph, cg CacheGroup) {
	type candidate struct {
		id     ident.ModuleIdentifier
		owners []ident.ChunkUkey
		size   int
	}

	var candidates []candidate
	for _, id := range sortedModuleIDs(graph) {
		owners := graph.ChunksContainingModule(id)
		if len(owners) < cg.MinChunks {
			continue
		}
		mod, ok := mgraph.Module(id)
		if !ok {
			continue
		}
		if cg.Test != nil && !cg.Test(mod) {
			continue
		}
		candidates = append(candidates, candidate{id: id, owners: owners, size: len(mod.Source())})
	}
	if len(candidates) == 0 {
		return
	}

	totalSize := 0
	for _, c := range candidates {
		totalSize += c.size
	}
	if bytesize.Size(totalSize) < cg.MinSize {
		return
	}

	newChunk := graph.NewChunk()
	newChunk.Name = cg.Name

	ownerGroups := make(map[ident.ChunkGroupUkey]bool)
	for _, c := range candidates {
		for _, owner := range c.owners {
			graph.DisconnectModule(owner, c.id)
		}
		graph.ConnectModule(newChunk.Ukey, c.id)
		for _, owner := range c.owners {
			if group, ok := graph.GroupOwningChunk(owner); ok {
				ownerGroups[group.Ukey] = true
			}
		}
	}

	host := graph.NewChunkGroup(KindNormal)
	host.Name = cg.Name
	host.AddChunk(newChunk.Ukey)
	for groupUkey := range ownerGroups {
		if group, ok := graph.Group(groupUkey); ok {
			group.Children = append(group.Children, host.Ukey)
			host.Parents = append(host.Parents, group.Ukey)
		}
	}
}
