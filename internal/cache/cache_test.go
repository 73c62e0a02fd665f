package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

func buildGraphs(t *testing.T) (*modulegraph.Graph, *chunkgraph.Graph, *modulegraph.NormalModule, *modulegraph.RawModule) {
	t.Helper()
	table := ident.NewTable()
	counters := ident.NewCounters()
	mgraph := modulegraph.NewGraph()

	leaf := modulegraph.NewRawModule(table.Intern("/src/leaf.js"), modulegraph.ModuleTypeJSAuto, []byte("module.exports = 1;"), "")
	mgraph.AddModule(leaf)

	entry := modulegraph.NewNormalModule(table.Intern("/src/entry.js"), modulegraph.ModuleTypeJSESM, modulegraph.ResourceData{Path: "/src/entry.js"}, nil, "")
	mgraph.AddModule(entry)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Cat: modulegraph.DependencyCategoryESM, Typ: modulegraph.DependencyTypeESMImport, Req: "./leaf"}
	mgraph.AddDependency(dep)
	mgraph.AddConnection(&modulegraph.Connection{Origin: entry.Identifier(), Dependency: depID, Target: leaf.Identifier()})
	entry.AddDependencyID(depID)

	builder := chunkgraph.NewBuilder(mgraph, counters, nil)
	require.NoError(t, builder.Build([]chunkgraph.EntryPoint{{Name: "main", Module: entry.Identifier()}}))

	return mgraph, builder.Graph(), entry, leaf
}

func TestComputeModuleGraphKey_ChangesWithDependencySet(t *testing.T) {
	mgraph, _, entry, _ := buildGraphs(t)
	mod, ok := mgraph.Module(entry.Identifier())
	require.True(t, ok)

	before := ComputeModuleGraphKey(mod)

	extraDep := &modulegraph.BaseDependency{Id: 999, Cat: modulegraph.DependencyCategoryESM, Typ: modulegraph.DependencyTypeESMImport, Req: "./other"}
	mgraph.AddDependency(extraDep)
	entry.AddDependencyID(extraDep.ID())

	after := ComputeModuleGraphKey(mod)
	assert.NotEqual(t, before, after)
}

func TestComputeChunkGraphKey_IncludesAssignedChunks(t *testing.T) {
	mgraph, cgraph, entry, leaf := buildGraphs(t)
	entryMod, _ := mgraph.Module(entry.Identifier())
	leafMod, _ := mgraph.Module(leaf.Identifier())

	entryKey := ComputeChunkGraphKey(entry.Identifier(), entryMod, mgraph, cgraph)
	leafKey := ComputeChunkGraphKey(leaf.Identifier(), leafMod, mgraph, cgraph)
	assert.NotEqual(t, entryKey, leafKey, "distinct module ids must never collide")

	again := ComputeChunkGraphKey(entry.Identifier(), entryMod, mgraph, cgraph)
	assert.Equal(t, entryKey, again, "key must be deterministic across calls")
}

func TestUnaffectedModulesCache_Decide(t *testing.T) {
	c := NewUnaffectedModulesCache()
	id := ident.NewTable().Intern("/src/a.js")

	assert.Equal(t, DecisionRebuild, c.Decide(id, CacheEntry{ModuleGraphKey: "m1", ChunkGraphKey: "c1"}))

	c.Set(id, CacheEntry{ModuleGraphKey: "m1", ChunkGraphKey: "c1"})
	assert.Equal(t, DecisionSkip, c.Decide(id, CacheEntry{ModuleGraphKey: "m1", ChunkGraphKey: "c1"}))
	assert.Equal(t, DecisionRecodegen, c.Decide(id, CacheEntry{ModuleGraphKey: "m1", ChunkGraphKey: "c2"}))
	assert.Equal(t, DecisionRebuild, c.Decide(id, CacheEntry{ModuleGraphKey: "m2", ChunkGraphKey: "c1"}))
}

func TestUnaffectedModulesCache_SnapshotAndRestoreRoundTrip(t *testing.T) {
	c := NewUnaffectedModulesCache()
	id := ident.NewTable().Intern("/src/a.js")
	c.Set(id, CacheEntry{ModuleGraphKey: "m1", ChunkGraphKey: "c1"})

	snap := c.Snapshot()
	restored := NewUnaffectedModulesCache()
	restored.Restore(snap)

	entry, ok := restored.Get(id)
	require.True(t, ok)
	assert.Equal(t, "m1", entry.ModuleGraphKey)
	assert.Equal(t, 1, restored.Len())
}

func TestCouldAffectReferencingModule_Defaults(t *testing.T) {
	assert.Equal(t, AffectTransitive, CouldAffectReferencingModule(modulegraph.DependencyTypeESMImport))
	assert.Equal(t, AffectNo, CouldAffectReferencingModule(modulegraph.DependencyTypeESMDynamicImport))
	assert.Equal(t, AffectYes, CouldAffectReferencingModule(modulegraph.DependencyType("some-plugin-defined-type")))
}

func TestInvalidate_ESMImportMarksReferrer(t *testing.T) {
	mgraph, _, entry, leaf := buildGraphs(t)

	affected := Invalidate(mgraph, []ident.ModuleIdentifier{leaf.Identifier()})
	assert.True(t, affected[leaf.Identifier()])
	assert.True(t, affected[entry.Identifier()], "ESM import is AffectTransitive, so entry must be marked too")
}

func TestInvalidate_AffectNoDoesNotPropagate(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	mgraph := modulegraph.NewGraph()

	origin := modulegraph.NewNormalModule(table.Intern("/src/origin.js"), modulegraph.ModuleTypeJSESM, modulegraph.ResourceData{Path: "/src/origin.js"}, nil, "")
	target := modulegraph.NewRawModule(table.Intern("/src/target.js"), modulegraph.ModuleTypeJSAuto, []byte("x"), "")
	mgraph.AddModule(origin)
	mgraph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Cat: modulegraph.DependencyCategoryWorker, Typ: modulegraph.DependencyTypeWorker, Req: "./target"}
	mgraph.AddDependency(dep)
	mgraph.AddConnection(&modulegraph.Connection{Origin: origin.Identifier(), Dependency: depID, Target: target.Identifier()})
	origin.AddDependencyID(depID)

	affected := Invalidate(mgraph, []ident.ModuleIdentifier{target.Identifier()})
	assert.True(t, affected[target.Identifier()])
	assert.False(t, affected[origin.Identifier()], "worker dependency is AffectNo")
}

func TestRecomputeKeys_CoversEveryModule(t *testing.T) {
	mgraph, cgraph, entry, leaf := buildGraphs(t)

	results, err := RecomputeKeys(context.Background(), mgraph, cgraph, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[entry.Identifier()].ModuleGraphKey)
	assert.NotEmpty(t, results[leaf.Identifier()].ChunkGraphKey)
}
