package chunkgraph

import (
	"log/slog"
	"sort"

	"github.com/jmylchreest/wbcore/internal/diagnostic"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/observability"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// EntryPoint describes one configured entry (spec.md §4.4 step 1): its
// entry module, the runtime it shares with other entries of the same
// RuntimeName (defaulting to its own Name), and the other entries it
// depends on. An entry with DependOn is built after the entries it names
// and its group becomes their child; its runtime chunk is still chosen by
// RuntimeName alone, so it shares a dependency's runtime chunk only when
// both have the same RuntimeName.
type EntryPoint struct {
	Name        string
	Module      ident.ModuleIdentifier
	RuntimeName string
	DependOn    []string
}

// Builder runs the chunk-graph-construction algorithm (spec.md §4.4) over
// an already-built modulegraph.Graph.
type Builder struct {
	mgraph *modulegraph.Graph
	graph  *Graph
	diags  diagnostic.Bag
	logger *slog.Logger

	groupByChunkName map[string]*ChunkGroup
	runtimeChunks    map[string]ident.ChunkUkey
	entryGroups      map[string]ident.ChunkGroupUkey
	runtimeGroups    map[string][]ident.ChunkGroupUkey

	// fatal is set when traverse hits a module missing from the module
	// graph at connect time (spec.md §4.4 "Failure": that case is an
	// internal error, not a recoverable diagnostic).
	fatal bool
}

// NewBuilder creates a Builder over an already-built module graph, writing
// into a fresh chunk Graph backed by counters.
func NewBuilder(mgraph *modulegraph.Graph, counters *ident.Counters, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		mgraph:           mgraph,
		graph:            NewGraph(counters),
		logger:           logger,
		groupByChunkName: make(map[string]*ChunkGroup),
		runtimeChunks:    make(map[string]ident.ChunkUkey),
		entryGroups:      make(map[string]ident.ChunkGroupUkey),
		runtimeGroups:    make(map[string][]ident.ChunkGroupUkey),
	}
}

// Graph returns the ChunkGraph being populated.
func (b *Builder) Graph() *Graph { return b.graph }

// Diagnostics returns every diagnostic recorded during Build.
func (b *Builder) Diagnostics() []*diagnostic.Diagnostic { return b.diags.All() }

// RuntimeChunkFor returns the shared runtime chunk for an entry-runtime name
// (spec.md §4.6 step 3: the tree-wide lift inserts materialized runtime
// modules into "its runtime chunk").
func (b *Builder) RuntimeChunkFor(runtimeName string) (ident.ChunkUkey, bool) {
	ukey, ok := b.runtimeChunks[runtimeName]
	return ukey, ok
}

// EntryGroupFor returns the entrypoint ChunkGroup for a named entry, the
// root of the tree that entry's runtime requirements are lifted across.
func (b *Builder) EntryGroupFor(entryName string) (ident.ChunkGroupUkey, bool) {
	ukey, ok := b.entryGroups[entryName]
	return ukey, ok
}

// RuntimeNames returns every distinct runtime name with a runtime chunk,
// sorted for deterministic iteration.
func (b *Builder) RuntimeNames() []string {
	out := make([]string, 0, len(b.runtimeChunks))
	for name := range b.runtimeChunks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build runs the full algorithm: entry ordering (step 1), BFS chunk
// assignment including async-block chunk-group spawning (steps 2-3),
// cross-group dedup (step 4). Split-chunks (step 5) is a separate,
// optional pass — see splitchunks.go — applied after Build returns.
func (b *Builder) Build(entries []EntryPoint) error {
	ordered, err := orderEntries(entries)
	if err != nil {
		b.diags.Add(diagnostic.Wrap(diagnostic.SeverityError, "ENTRY_CYCLE", "cycle among entry dependOn relationships", err))
		ordered = acyclicSubset(entries)
	}

	entryGroups := make(map[string]*ChunkGroup, len(ordered))

	for _, e := range ordered {
		if _, ok := b.mgraph.Module(e.Module); !ok {
			b.diags.Errorf("ENTRY_MODULE_MISSING", "entry %q: module %q missing from module graph", e.Name, e.Module.String())
			continue
		}

		runtimeName := e.RuntimeName
		if runtimeName == "" {
			runtimeName = e.Name
		}

		group := b.graph.NewChunkGroup(KindEntrypoint)
		group.Name = e.Name
		group.EntryModule = e.Module
		entryGroups[e.Name] = group
		b.entryGroups[e.Name] = group.Ukey
		b.runtimeGroups[runtimeName] = append(b.runtimeGroups[runtimeName], group.Ukey)

		for _, parentName := range e.DependOn {
			if parentGroup, ok := entryGroups[parentName]; ok {
				group.Parents = append(group.Parents, parentGroup.Ukey)
				parentGroup.Children = append(parentGroup.Children, group.Ukey)
			}
		}

		runtimeChunkUkey, ok := b.runtimeChunks[runtimeName]
		if !ok {
			runtimeChunk := b.graph.NewChunk()
			runtimeChunk.Name = runtimeName
			runtimeChunk.IsRuntimeChunk = true
			runtimeChunk.Runtime = runtimespec.Single(runtimeName)
			b.runtimeChunks[runtimeName] = runtimeChunk.Ukey
			runtimeChunkUkey = runtimeChunk.Ukey
		}
		group.AddChunk(runtimeChunkUkey)

		entryChunk := b.graph.NewChunk()
		entryChunk.Name = e.Name
		entryChunk.Runtime = runtimespec.Single(runtimeName)
		group.AddChunk(entryChunk.Ukey)

		b.traverse(group, entryChunk.Ukey, e.Module)
	}

	if b.fatal {
		return diagnostic.ErrModuleMissingFromGraph
	}

	b.dedup()

	b.logger.Info("chunk graph built",
		slog.Int("chunk_count", len(b.graph.chunks)),
		slog.Int("group_count", len(b.graph.groups)),
	)
	return nil
}

// traverse performs the synchronous-dependency DFS for one chunk group
// starting at root, assigning every reached module to contentChunk (not
// the group's runtime chunk — that only ever holds injected runtime
// modules, attached later by internal/runtimereq), recording pre/post
// order indices, and spawning a child chunk group for every
// AsyncDependenciesBlock encountered (spec.md §4.4 steps 2-3).
func (b *Builder) traverse(group *ChunkGroup, contentChunk ident.ChunkUkey, root ident.ModuleIdentifier) {
	visited := make(map[ident.ModuleIdentifier]bool)
	order := 0
	chunkLogger := observability.WithChunkUkey(b.logger, contentChunk.String())

	var visit func(id ident.ModuleIdentifier)
	visit = func(id ident.ModuleIdentifier) {
		if visited[id] {
			return
		}
		visited[id] = true

		group.preOrder[id] = order
		order++

		b.graph.ConnectModule(contentChunk, id)
		observability.WithModuleID(chunkLogger, id.String()).Debug("module connected to chunk")

		mod, ok := b.mgraph.Module(id)
		if !ok {
			b.diags.Add(diagnostic.New(diagnostic.SeverityError, "MODULE_MISSING", "module "+id.String()+" missing from module graph at connect time"))
			b.fatal = true
			return
		}

		for _, conn := range b.mgraph.OutgoingConnections(mod) {
			if !conn.ActiveInRuntime("") {
				continue
			}
			visit(conn.Target)
		}

		for _, blockID := range mod.Blocks() {
			block, ok := b.mgraph.Block(blockID)
			if !ok {
				continue
			}
			b.spawnAsyncGroup(group, block)
		}

		group.postOrder[id] = order
		order++
	}
	visit(root)
}

// spawnAsyncGroup creates (or reuses, by chunk-name hint) a child
// ChunkGroup of parent for an AsyncDependenciesBlock, and traverses its own
// module subgraph into a fresh content chunk (spec.md §4.4 step 3).
func (b *Builder) spawnAsyncGroup(parent *ChunkGroup, block *modulegraph.AsyncDependenciesBlock) {
	name := ""
	if block.Options != nil {
		name = block.Options.ChunkName
	}

	var child *ChunkGroup
	var chunk *Chunk
	if name != "" {
		if existing, ok := b.groupByChunkName[name]; ok {
			child = existing
			if len(child.Chunks) > 0 {
				chunk, _ = b.graph.Chunk(child.Chunks[0])
			}
		}
	}
	if child == nil {
		child = b.graph.NewChunkGroup(KindNormal)
		child.Name = name
		if name != "" {
			b.groupByChunkName[name] = child
		}
	}
	if !hasParent(child, parent.Ukey) {
		child.Parents = append(child.Parents, parent.Ukey)
		parent.Children = append(parent.Children, child.Ukey)
	}
	if chunk == nil {
		chunk = b.graph.NewChunk()
		chunk.Name = name
		child.AddChunk(chunk.Ukey)
		observability.WithChunkUkey(b.logger, chunk.Ukey.String()).Debug("async chunk spawned", slog.String("chunk_name", name))
	}

	for _, depID := range block.Deps {
		conn, ok := b.mgraph.Connection(depID)
		if !ok || !conn.ActiveInRuntime("") {
			continue
		}
		b.traverse(child, chunk.Ukey, conn.Target)
	}
}

func hasParent(g *ChunkGroup, parent ident.ChunkGroupUkey) bool {
	for _, p := range g.Parents {
		if p == parent {
			return true
		}
	}
	return false
}

// dedup implements spec.md §4.4 step 4: if a module is reachable from
// multiple chunk groups and all chunks of one group are ancestors of every
// chunk containing that module, it is removed from the descendant chunks
// (kept only in the ancestor's chunks).
func (b *Builder) dedup() {
	for _, id := range sortedModuleIDs(b.graph) {
		owners := b.graph.ChunksContainingModule(id)
		if len(owners) < 2 {
			continue
		}
		for _, candidate := range owners {
			if b.isRedundant(candidate, id, owners) {
				b.graph.DisconnectModule(candidate, id)
			}
		}
	}
}

// isRedundant reports whether chunk's owning group is a descendant (in the
// chunk-group ancestry DAG) of every other chunk currently holding module,
// meaning module is reachable from chunk purely via an ancestor and the
// copy in chunk itself is redundant.
func (b *Builder) isRedundant(chunk ident.ChunkUkey, module ident.ModuleIdentifier, owners []ident.ChunkUkey) bool {
	chunkGroup, ok := b.graph.GroupOwningChunk(chunk)
	if !ok {
		return false
	}
	for _, other := range owners {
		if other == chunk {
			continue
		}
		otherGroup, ok := b.graph.GroupOwningChunk(other)
		if !ok {
			return false
		}
		if !chunkGroup.hasAncestor(otherGroup.Ukey, b.graph) {
			return false
		}
	}
	return true
}

func sortedModuleIDs(g *Graph) []ident.ModuleIdentifier {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]ident.ModuleIdentifier, 0, len(g.byModule))
	for id := range g.byModule {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// orderEntries topologically sorts entries by DependOn using Kahn's
// algorithm, returning an error (without discarding the input) if a cycle
// exists so the caller can fall back to the acyclic subset (spec.md §4.4
// "Failure: cycles among entries with dependOn ⇒ diagnostic, keep partial
// graph").
func orderEntries(entries []EntryPoint) ([]EntryPoint, error) {
	byName := make(map[string]EntryPoint, len(entries))
	indegree := make(map[string]int, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
		if _, ok := indegree[e.Name]; !ok {
			indegree[e.Name] = 0
		}
	}
	for _, e := range entries {
		for _, dep := range e.DependOn {
			if _, ok := byName[dep]; ok {
				indegree[e.Name]++
			}
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var out []EntryPoint
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		out = append(out, byName[name])

		for _, e := range entries {
			for _, dep := range e.DependOn {
				if dep == name {
					indegree[e.Name]--
					if indegree[e.Name] == 0 {
						ready = append(ready, e.Name)
					}
				}
			}
		}
	}

	if len(out) != len(entries) {
		return out, diagnostic.ErrEntryCycle
	}
	return out, nil
}

// acyclicSubset is the fallback order after a DependOn cycle: every entry,
// with its DependOn cleared by dropCyclicDependOn, in name order.
func acyclicSubset(entries []EntryPoint) []EntryPoint {
	ordered, err := orderEntries(dropCyclicDependOn(entries))
	if err != nil {
		return nil
	}
	return ordered
}

// dropCyclicDependOn is a conservative fallback: if entries form a cycle
// through DependOn, clear every DependOn list so each entry at least still
// gets built (with no parent entry group) rather than discarding
// the whole build.
func dropCyclicDependOn(entries []EntryPoint) []EntryPoint {
	out := make([]EntryPoint, len(entries))
	for i, e := range entries {
		e.DependOn = nil
		out[i] = e
	}
	return out
}
