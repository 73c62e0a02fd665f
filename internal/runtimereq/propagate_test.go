package runtimereq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

func mkModule(table *ident.Table, path string) *modulegraph.NormalModule {
	return modulegraph.NewNormalModule(table.Intern(path), modulegraph.ModuleTypeJSESM, modulegraph.ResourceData{Path: path}, nil, "")
}

func link(t *testing.T, mgraph *modulegraph.Graph, counters *ident.Counters, from, to *modulegraph.NormalModule) {
	t.Helper()
	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMImport, Req: to.Identifier().String()}
	mgraph.AddDependency(dep)
	mgraph.AddConnection(&modulegraph.Connection{Dependency: depID, Target: to.Identifier()})
	from.AddDependencyID(depID)
}

func buildChunks(t *testing.T) (*chunkgraph.Builder, *modulegraph.NormalModule, *modulegraph.NormalModule) {
	t.Helper()
	table := ident.NewTable()
	counters := ident.NewCounters()
	mgraph := modulegraph.NewGraph()

	entry := mkModule(table, "/src/entry.js")
	leaf := mkModule(table, "/src/leaf.js")
	mgraph.AddModule(entry)
	mgraph.AddModule(leaf)
	link(t, mgraph, counters, entry, leaf)

	builder := chunkgraph.NewBuilder(mgraph, counters, nil)
	require.NoError(t, builder.Build([]chunkgraph.EntryPoint{{Name: "main", Module: entry.Identifier()}}))
	return builder, entry, leaf
}

func TestPropagateModulesToChunks_UnionsPerModuleRequirements(t *testing.T) {
	builder, entry, leaf := buildChunks(t)
	graph := builder.Graph()

	moduleReqs := ModuleRequirements{
		entry.Identifier(): RequireFn,
		leaf.Identifier():  Exports,
	}
	chunkReqs := PropagateModulesToChunks(graph, moduleReqs, nil)

	chunks := graph.ChunksContainingModule(leaf.Identifier())
	require.Len(t, chunks, 1)
	req := chunkReqs[chunks[0]]
	assert.True(t, req.Has(RequireFn))
	assert.True(t, req.Has(Exports))
}

func TestPropagateModulesToChunks_ExtraIsUnioned(t *testing.T) {
	builder, _, leaf := buildChunks(t)
	graph := builder.Graph()
	chunks := graph.ChunksContainingModule(leaf.Identifier())
	require.Len(t, chunks, 1)

	chunkReqs := PropagateModulesToChunks(graph, ModuleRequirements{}, map[ident.ChunkUkey]Requirements{
		chunks[0]: PublicPath,
	})
	assert.True(t, chunkReqs[chunks[0]].Has(PublicPath))
}

func TestPropagateTree_MaterializesTransitiveRuntimeModules(t *testing.T) {
	builder, entry, _ := buildChunks(t)
	graph := builder.Graph()

	moduleReqs := ModuleRequirements{entry.Identifier(): RequireFn}
	chunkReqs := PropagateModulesToChunks(graph, moduleReqs, nil)

	runtimeChunk, ok := builder.RuntimeChunkFor("main")
	require.True(t, ok)
	entryGroup, ok := builder.EntryGroupFor("main")
	require.True(t, ok)

	resolver := NewResolver()
	result := resolver.PropagateTree(graph, chunkReqs, "main", runtimeChunk, entryGroup)

	assert.True(t, result.Tree.Has(RequireFn))
	assert.True(t, result.Tree.Has(ModuleFactories))
	assert.True(t, result.Tree.Has(ModuleCache))

	names := make(map[string]bool)
	for _, m := range result.Modules {
		names[m.Name()] = true
	}
	assert.True(t, names["require"])
	assert.True(t, names["module_factories"])
	assert.True(t, names["module_cache"])
}

func TestPropagateTree_OrdersModulesByStageThenName(t *testing.T) {
	builder, entry, _ := buildChunks(t)
	graph := builder.Graph()

	moduleReqs := ModuleRequirements{entry.Identifier(): HMRAccept}
	chunkReqs := PropagateModulesToChunks(graph, moduleReqs, nil)

	runtimeChunk, _ := builder.RuntimeChunkFor("main")
	entryGroup, _ := builder.EntryGroupFor("main")

	resolver := NewResolver()
	result := resolver.PropagateTree(graph, chunkReqs, "main", runtimeChunk, entryGroup)

	require.NotEmpty(t, result.Modules)
	for i := 1; i < len(result.Modules); i++ {
		assert.LessOrEqual(t, result.Modules[i-1].Stage(), result.Modules[i].Stage())
	}
}

func TestPropagateTree_NoRequirementsMaterializesNothing(t *testing.T) {
	builder, _, _ := buildChunks(t)
	graph := builder.Graph()

	chunkReqs := PropagateModulesToChunks(graph, ModuleRequirements{}, nil)
	runtimeChunk, _ := builder.RuntimeChunkFor("main")
	entryGroup, _ := builder.EntryGroupFor("main")

	resolver := NewResolver()
	result := resolver.PropagateTree(graph, chunkReqs, "main", runtimeChunk, entryGroup)
	assert.Empty(t, result.Modules)
	assert.Equal(t, Requirements(0), result.Tree)
}
