package exportsinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

type namedImportDependency struct {
	modulegraph.BaseDependency
	names []string
	state UsageState
}

func (d *namedImportDependency) ConsumedExports() ([]string, UsageState, bool) {
	return d.names, d.state, false
}

type namespaceImportDependency struct {
	modulegraph.BaseDependency
}

func (d *namespaceImportDependency) ConsumedExports() ([]string, UsageState, bool) {
	return nil, Used, true
}

type sideEffectImportDependency struct {
	modulegraph.BaseDependency
}

func (d *sideEffectImportDependency) IsSideEffectOnly() bool { return true }

func TestFlagUsedExports_NamedImportMarksOnlyThatExportUsed(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	entry := newModule(table, "/src/entry.js", modulegraph.ModuleTypeJSESM)
	target := newModule(table, "/src/lib.js", modulegraph.ModuleTypeJSESM)
	graph.AddModule(entry)
	graph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &namedImportDependency{
		BaseDependency: modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMImportSpecifier, Req: "./lib"},
		names:          []string{"x"},
		state:          Used,
	}
	graph.AddDependency(dep)
	graph.AddConnection(&modulegraph.Connection{Dependency: depID, Target: target.Identifier()})
	addDepToModule(t, entry, depID)

	registry := NewRegistry()
	FlagUsedExports(graph, registry, []ident.ModuleIdentifier{entry.Identifier()}, runtimespec.Single("main"))

	info, ok := registry.Get(target.Identifier())
	require.True(t, ok)
	assert.True(t, info.IsUsed("x", "main"))
	assert.False(t, info.IsUsed("y", "main"))
}

func TestFlagUsedExports_NamespaceImportMarksEverythingUsed(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	entry := newModule(table, "/src/entry.js", modulegraph.ModuleTypeJSESM)
	target := newModule(table, "/src/lib.js", modulegraph.ModuleTypeJSESM)
	graph.AddModule(entry)
	graph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &namespaceImportDependency{modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMImport, Req: "./lib"}}
	graph.AddDependency(dep)
	graph.AddConnection(&modulegraph.Connection{Dependency: depID, Target: target.Identifier()})
	addDepToModule(t, entry, depID)

	registry := NewRegistry()
	registry.For(target.Identifier()).ExportInfoFor("alreadyKnown")
	FlagUsedExports(graph, registry, []ident.ModuleIdentifier{entry.Identifier()}, runtimespec.Single("main"))

	info, ok := registry.Get(target.Identifier())
	require.True(t, ok)
	assert.True(t, info.IsUsed("alreadyKnown", "main"))
	assert.True(t, info.IsUsed("anythingElse", "main"))
}

func TestFlagUsedExports_SideEffectOnlyImportMarksModuleButNoExport(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	entry := newModule(table, "/src/entry.js", modulegraph.ModuleTypeJSESM)
	target := newModule(table, "/src/polyfill.js", modulegraph.ModuleTypeJSESM)
	graph.AddModule(entry)
	graph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &sideEffectImportDependency{modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMImport, Req: "./polyfill"}}
	graph.AddDependency(dep)
	graph.AddConnection(&modulegraph.Connection{Dependency: depID, Target: target.Identifier()})
	addDepToModule(t, entry, depID)

	registry := NewRegistry()
	FlagUsedExports(graph, registry, []ident.ModuleIdentifier{entry.Identifier()}, runtimespec.Single("main"))

	info, ok := registry.Get(target.Identifier())
	require.True(t, ok)
	assert.True(t, info.IsModuleUsed("main"))
	assert.False(t, info.IsUsed("anything", "main"))
}

func TestFlagUsedExports_InactiveConnectionIsNotPropagated(t *testing.T) {
	table := ident.NewTable()
	counters := ident.NewCounters()
	graph := modulegraph.NewGraph()

	entry := newModule(table, "/src/entry.js", modulegraph.ModuleTypeJSESM)
	target := newModule(table, "/src/dead.js", modulegraph.ModuleTypeJSESM)
	graph.AddModule(entry)
	graph.AddModule(target)

	depID := counters.NextDependencyID()
	dep := &namedImportDependency{
		BaseDependency: modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeESMImportSpecifier, Req: "./dead"},
		names:          []string{"x"},
		state:          Used,
	}
	graph.AddDependency(dep)
	conn := &modulegraph.Connection{Dependency: depID, Target: target.Identifier()}
	conn.SetInactive()
	graph.AddConnection(conn)
	addDepToModule(t, entry, depID)

	registry := NewRegistry()
	FlagUsedExports(graph, registry, []ident.ModuleIdentifier{entry.Identifier()}, runtimespec.Single("main"))

	info, ok := registry.Get(target.Identifier())
	if ok {
		assert.False(t, info.IsUsed("x", "main"))
	}
}

// addDepToModule appends depID to a NormalModule's own Dependencies() list
// so Graph.OutgoingConnections(mod) can find its Connection; Builder does
// this as part of parsing (builder.go), so tests stand in for that step.
func addDepToModule(t *testing.T, mod *modulegraph.NormalModule, depID ident.DependencyId) {
	t.Helper()
	mod.AddDependencyID(depID)
}
