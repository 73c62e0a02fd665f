package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/exportsinfo"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

type fakeCompilationView struct {
	mg *modulegraph.Graph
	ei *exportsinfo.Registry
}

func (f *fakeCompilationView) ModuleGraph() *modulegraph.Graph        { return f.mg }
func (f *fakeCompilationView) ExportsInfo() *exportsinfo.Registry     { return f.ei }

func newFixture(t *testing.T) (*fakeCompilationView, *ident.Table, *ident.Counters) {
	t.Helper()
	return &fakeCompilationView{mg: modulegraph.NewGraph(), ei: exportsinfo.NewRegistry()}, ident.NewTable(), ident.NewCounters()
}

func TestGenerate_CJSRequireRewritesCallSite(t *testing.T) {
	view, table, counters := newFixture(t)

	target := modulegraph.NewRawModule(table.Intern("/b.js"), modulegraph.ModuleTypeJSAuto, []byte("module.exports = 1;"), "")
	view.mg.AddModule(target)

	src := []byte(`const b = require("./b");`)
	origin := modulegraph.NewRawModule(table.Intern("/a.js"), modulegraph.ModuleTypeJSAuto, src, "")
	view.mg.AddModule(origin)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeCJSRequire, Req: "./b", Rng: modulegraph.Range{Start: 10, End: 26}, HasRange: true}
	view.mg.AddDependency(dep)
	view.mg.AddConnection(&modulegraph.Connection{Origin: origin.Identifier(), Dependency: depID, Target: target.Identifier()})
	origin.AddDependencyID(depID)

	templates := NewTemplateRegistry()
	result, err := Generate(origin, runtimespec.Spec{}, view, templates, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Body, "__w_require__(\"/b.js\")")
	assert.True(t, result.Requirements.Has(runtimereq.RequireFn))
	assert.Equal(t, modulegraph.SourceTypeJavaScript, result.SourceType)
}

func TestGenerate_UsesModuleIDsWhenProvided(t *testing.T) {
	view, table, counters := newFixture(t)

	target := modulegraph.NewRawModule(table.Intern("/b.js"), modulegraph.ModuleTypeJSAuto, []byte(""), "")
	view.mg.AddModule(target)
	src := []byte(`require("./b");`)
	origin := modulegraph.NewRawModule(table.Intern("/a.js"), modulegraph.ModuleTypeJSAuto, src, "")
	view.mg.AddModule(origin)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeCJSRequire, Req: "./b", Rng: modulegraph.Range{Start: 0, End: 15}, HasRange: true}
	view.mg.AddDependency(dep)
	view.mg.AddConnection(&modulegraph.Connection{Origin: origin.Identifier(), Dependency: depID, Target: target.Identifier()})
	origin.AddDependencyID(depID)

	ids := map[ident.ModuleIdentifier]string{target.Identifier(): "1"}
	templates := NewTemplateRegistry()
	result, err := Generate(origin, runtimespec.Spec{}, view, templates, ids, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Body, "__w_require__(\"1\")")
}

func TestGenerate_InactiveConnectionProducesNoRequireCall(t *testing.T) {
	view, table, counters := newFixture(t)

	target := modulegraph.NewRawModule(table.Intern("/b.js"), modulegraph.ModuleTypeJSAuto, nil, "")
	view.mg.AddModule(target)
	src := []byte(`require("./b");`)
	origin := modulegraph.NewRawModule(table.Intern("/a.js"), modulegraph.ModuleTypeJSAuto, src, "")
	view.mg.AddModule(origin)

	depID := counters.NextDependencyID()
	dep := &modulegraph.BaseDependency{Id: depID, Typ: modulegraph.DependencyTypeCJSRequire, Req: "./b", Rng: modulegraph.Range{Start: 0, End: 15}, HasRange: true}
	view.mg.AddDependency(dep)
	conn := &modulegraph.Connection{Origin: origin.Identifier(), Dependency: depID, Target: target.Identifier()}
	conn.SetInactive()
	view.mg.AddConnection(conn)
	origin.AddDependencyID(depID)

	templates := NewTemplateRegistry()
	result, err := Generate(origin, runtimespec.Spec{}, view, templates, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, result.Body, "__w_require__")
	assert.Contains(t, result.Body, "({})")
}

func TestGenerate_ConcatenationScopeUsesNamespaceEnvelope(t *testing.T) {
	view, table, _ := newFixture(t)
	origin := modulegraph.NewRawModule(table.Intern("/a.js"), modulegraph.ModuleTypeJSAuto, []byte("1;"), "")
	view.mg.AddModule(origin)

	scope := NewConcatenationScope("__wbcore_group_0__")
	templates := NewTemplateRegistry()
	result, err := Generate(origin, runtimespec.Spec{}, view, templates, nil, scope)
	require.NoError(t, err)
	assert.Contains(t, result.Body, "/* /a.js */")
}

func TestGenerate_HMRAcceptUsesEvalEnvelope(t *testing.T) {
	view, table, _ := newFixture(t)
	origin := modulegraph.NewRawModule(table.Intern("/a.js"), modulegraph.ModuleTypeJSAuto, []byte("1;"), "")
	view.mg.AddModule(origin)

	templates := NewTemplateRegistry()
	templates.Register("force-hmr", &forceRequirementTemplate{bit: runtimereq.HMRAccept})
	depID := ident.DependencyId(9999)
	dep := &modulegraph.BaseDependency{Id: depID, Typ: "force-hmr"}
	view.mg.AddDependency(dep)
	origin.AddDependencyID(depID)

	result, err := Generate(origin, runtimespec.Spec{}, view, templates, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Body, "eval(")
}

// forceRequirementTemplate is a test-only template that adds a requirement
// without touching the source, used to exercise envelope selection without
// depending on a real HMR-producing dependency type.
type forceRequirementTemplate struct {
	bit runtimereq.Requirements
}

func (f *forceRequirementTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(f.bit)
}
