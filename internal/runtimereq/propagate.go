package runtimereq

import (
	"sort"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/ident"
)

// ModuleRequirements is what code generation emitted per (module) — the
// level-1 input to the propagation algorithm (spec.md §4.6 step 1). Runtime
// ("per-module-per-runtime") specificity is the caller's concern; this
// package only ever sees the union already collapsed to one Requirements
// value per module for the runtime being resolved.
type ModuleRequirements map[ident.ModuleIdentifier]Requirements

// TreeResult is the output of lifting one entry-runtime's chunk
// requirements to a fixed point: the per-chunk union requirements.go
// records along the way, and the runtime modules to insert into the
// runtime chunk, ordered by stage then name for deterministic output.
type TreeResult struct {
	RuntimeName  string
	RuntimeChunk ident.ChunkUkey
	Chunks       map[ident.ChunkUkey]Requirements
	Tree         Requirements
	Modules      []RuntimeModule
}

// Resolver holds the capability -> RuntimeModule factory registry. The
// zero value is unusable; use NewResolver.
type Resolver struct {
	registry map[Requirements]func() RuntimeModule
}

// NewResolver returns a Resolver preloaded with every builtin capability
// from requirements.go.
func NewResolver() *Resolver {
	r := &Resolver{registry: make(map[Requirements]func() RuntimeModule)}
	registerBuiltins(r)
	return r
}

// Register adds or overrides the factory for a capability bit. Plugins use
// this to swap in their own runtime module for a builtin capability, or to
// register a bit of their own.
func (r *Resolver) Register(bit Requirements, factory func() RuntimeModule) {
	r.registry[bit] = factory
}

// PropagateModulesToChunks implements spec.md §4.6 step 2: the
// requirements of a chunk are the union of requirements of all modules it
// contains, plus whatever the chunk render itself needs (extra, may be nil).
func PropagateModulesToChunks(graph *chunkgraph.Graph, moduleReqs ModuleRequirements, extra map[ident.ChunkUkey]Requirements) map[ident.ChunkUkey]Requirements {
	out := make(map[ident.ChunkUkey]Requirements)
	for _, ukey := range graph.SortedChunkUkeys() {
		chunk, ok := graph.Chunk(ukey)
		if !ok {
			continue
		}
		var req Requirements
		for _, m := range chunk.SortedModules() {
			req = req.Union(moduleReqs[m])
		}
		if extra != nil {
			req = req.Union(extra[ukey])
		}
		out[ukey] = req
	}
	return out
}

// PropagateTree implements spec.md §4.6 step 3: the requirements of an
// entry-runtime are the union across all chunks reachable from root, then
// materialized into runtime modules inserted into runtimeChunk, iterated to
// a fixed point since a materialized runtime module may itself demand
// further capabilities.
func (r *Resolver) PropagateTree(graph *chunkgraph.Graph, chunkReqs map[ident.ChunkUkey]Requirements, runtimeName string, runtimeChunk ident.ChunkUkey, root ident.ChunkGroupUkey) *TreeResult {
	var tree Requirements
	for _, c := range graph.ReachableChunks(root) {
		tree = tree.Union(chunkReqs[c])
	}

	materialized := make(map[Requirements]RuntimeModule)
	for {
		before := tree
		for bit, factory := range r.registry {
			if !tree.Has(bit) {
				continue
			}
			if _, ok := materialized[bit]; ok {
				continue
			}
			mod := factory()
			materialized[bit] = mod
			tree = tree.Union(mod.Requires())
		}
		if tree == before {
			break
		}
	}

	modules := make([]RuntimeModule, 0, len(materialized))
	for _, mod := range materialized {
		modules = append(modules, mod)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Stage() != modules[j].Stage() {
			return modules[i].Stage() < modules[j].Stage()
		}
		return modules[i].Name() < modules[j].Name()
	})

	return &TreeResult{
		RuntimeName:  runtimeName,
		RuntimeChunk: runtimeChunk,
		Chunks:       chunkReqs,
		Tree:         tree,
		Modules:      modules,
	}
}
