package chunkgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

func TestApplySplitChunks_ExtractsSharedModuleIntoNewChunk(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	mgraph := modulegraph.NewGraph()

	shared := mkModule(table, "/node_modules/lib/index.js")
	shared.SetProvidedExports([]string{"x"}, nil)
	mgraph.AddModule(shared)

	a := mkModule(table, "/src/a.js")
	b := mkModule(table, "/src/b.js")
	mgraph.AddModule(a)
	mgraph.AddModule(b)
	link(t, mgraph, counters, a, shared)
	link(t, mgraph, counters, b, shared)

	builder := NewBuilder(mgraph, counters, nil)
	err := builder.Build([]EntryPoint{
		{Name: "a", Module: a.Identifier()},
		{Name: "b", Module: b.Identifier()},
	})
	require.NoError(t, err)

	graph := builder.Graph()
	before := graph.ChunksContainingModule(shared.Identifier())
	require.Len(t, before, 2)

	ApplySplitChunks(mgraph, graph, SplitChunksOptions{
		CacheGroups: []CacheGroup{{
			Name:      "vendors",
			MinChunks: 2,
			MinSize:   0,
		}},
	})

	after := graph.ChunksContainingModule(shared.Identifier())
	require.Len(t, after, 1)
	chunk, ok := graph.Chunk(after[0])
	require.True(t, ok)
	assert.Equal(t, "vendors", chunk.Name)
}

func TestApplySplitChunks_NoopWhenMinSizeNotReached(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	mgraph := modulegraph.NewGraph()

	shared := mkModule(table, "/node_modules/lib/index.js")
	mgraph.AddModule(shared)
	a := mkModule(table, "/src/a.js")
	b := mkModule(table, "/src/b.js")
	mgraph.AddModule(a)
	mgraph.AddModule(b)
	link(t, mgraph, counters, a, shared)
	link(t, mgraph, counters, b, shared)

	builder := NewBuilder(mgraph, counters, nil)
	require.NoError(t, builder.Build([]EntryPoint{
		{Name: "a", Module: a.Identifier()},
		{Name: "b", Module: b.Identifier()},
	}))
	graph := builder.Graph()

	ApplySplitChunks(mgraph, graph, SplitChunksOptions{
		CacheGroups: []CacheGroup{{Name: "vendors", MinChunks: 2, MinSize: 1 << 30}},
	})

	after := graph.ChunksContainingModule(shared.Identifier())
	assert.Len(t, after, 2)
}
