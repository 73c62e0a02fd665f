package exportsinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

func newModule(table *ident.Table, path string, typ modulegraph.ModuleType) *modulegraph.NormalModule {
	return modulegraph.NewNormalModule(table.Intern(path), typ, modulegraph.ResourceData{Path: path}, nil, "")
}

func TestFlagProvidedExports_StaticESMExports(t *testing.T) {
	table := ident.NewTable()
	graph := modulegraph.NewGraph()

	mod := newModule(table, "/src/a.js", modulegraph.ModuleTypeJSESM)
	mod.SetProvidedExports([]string{"x", "y"}, nil)
	graph.AddModule(mod)

	registry := NewRegistry()
	FlagProvidedExports(graph, registry)

	info, ok := registry.Get(mod.Identifier())
	require.True(t, ok)
	assert.Equal(t, Provided, info.IsExportProvided("x"))
	assert.Equal(t, Provided, info.IsExportProvided("y"))
	assert.Equal(t, NotProvided, info.IsExportProvided("z"))
}

func TestFlagProvidedExports_UnknownParserMarksOtherExportsUnknown(t *testing.T) {
	table := ident.NewTable()
	graph := modulegraph.NewGraph()

	mod := newModule(table, "/src/dynamic.js", modulegraph.ModuleTypeJSAuto)
	graph.AddModule(mod)

	registry := NewRegistry()
	FlagProvidedExports(graph, registry)

	info, ok := registry.Get(mod.Identifier())
	require.True(t, ok)
	assert.Equal(t, ProvidedUnknown, info.IsExportProvided("whatever"))
}

func TestFlagProvidedExports_WildcardReexportUnionsNames(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	target := newModule(table, "/src/target.js", modulegraph.ModuleTypeJSESM)
	target.SetProvidedExports([]string{"a", "b"}, nil)
	graph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMExportStar, Req: "./target"}
	graph.AddDependency(dep)
	graph.AddConnection(&modulegraph.Connection{Dependency: depID, Target: target.Identifier()})

	reexporter := newModule(table, "/src/index.js", modulegraph.ModuleTypeJSESM)
	reexporter.SetProvidedExports(nil, []ident.DependencyId{depID})
	graph.AddModule(reexporter)

	registry := NewRegistry()
	FlagProvidedExports(graph, registry)

	info, ok := registry.Get(reexporter.Identifier())
	require.True(t, ok)
	assert.Equal(t, Provided, info.IsExportProvided("a"))
	assert.Equal(t, Provided, info.IsExportProvided("b"))
}

func TestFlagProvidedExports_CircularReexportDoesNotInfinitelyRecurse(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	a := newModule(table, "/src/a.js", modulegraph.ModuleTypeJSESM)
	b := newModule(table, "/src/b.js", modulegraph.ModuleTypeJSESM)

	depAB := counters.NextDependencyID()
	depBA := counters.NextDependencyID()
	graph.AddDependency(&modulegraph.BaseDependency{Id: depAB, Typ: modulegraph.DependencyTypeESMExportStar, Req: "./b"})
	graph.AddDependency(&modulegraph.BaseDependency{Id: depBA, Typ: modulegraph.DependencyTypeESMExportStar, Req: "./a"})
	graph.AddConnection(&modulegraph.Connection{Dependency: depAB, Target: b.Identifier()})
	graph.AddConnection(&modulegraph.Connection{Dependency: depBA, Target: a.Identifier()})

	a.SetProvidedExports(nil, []ident.DependencyId{depAB})
	b.SetProvidedExports(nil, []ident.DependencyId{depBA})
	graph.AddModule(a)
	graph.AddModule(b)

	registry := NewRegistry()
	assert.NotPanics(t, func() { FlagProvidedExports(graph, registry) })
}
