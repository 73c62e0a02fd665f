package codegen

import (
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
)

// registerBuiltinTemplates wires every well-known DependencyType (spec.md
// §6) to a concrete template.
func registerBuiltinTemplates(r *TemplateRegistry) {
	r.Register(modulegraph.DependencyTypeESMImport, &esmImportTemplate{})
	r.Register(modulegraph.DependencyTypeESMImportSpecifier, &esmImportSpecifierTemplate{})
	r.Register(modulegraph.DependencyTypeESMExport, &esmExportTemplate{})
	r.Register(modulegraph.DependencyTypeESMExportStar, &esmExportStarTemplate{})
	r.Register(modulegraph.DependencyTypeESMDynamicImport, &esmDynamicImportTemplate{})
	r.Register(modulegraph.DependencyTypeCJSRequire, &cjsRequireTemplate{})
	r.Register(modulegraph.DependencyTypeCJSFullRequire, &cjsRequireTemplate{})
	r.Register(modulegraph.DependencyTypeAMDRequire, &cjsRequireTemplate{})
	r.Register(modulegraph.DependencyTypeRequireResolve, &requireResolveTemplate{})
	r.Register(modulegraph.DependencyTypeRequireContext, &requireContextTemplate{})
	r.Register(modulegraph.DependencyTypeContextElement, &contextElementTemplate{})
	r.Register(modulegraph.DependencyTypeWASMImport, &cjsRequireTemplate{})
	r.Register(modulegraph.DependencyTypeURL, &urlTemplate{})
	r.Register(modulegraph.DependencyTypeWorker, &workerTemplate{})
	r.Register(modulegraph.DependencyTypeEntry, &entryTemplate{})
}

// resolveTarget looks up the connection a dependency resolved to and
// reports whether it is active for ctx's runtime (spec.md §3 "connection
// activity monotonicity"). Templates emit no require call for an inactive
// or missing connection: depending on the template, its source range is
// left as is or replaced by an empty string or a placeholder expression.
func resolveTarget(dep modulegraph.Dependency, ctx *GenerationContext) (*modulegraph.Connection, bool) {
	conn, ok := ctx.Compilation.ModuleGraph().Connection(dep.ID())
	if !ok {
		return nil, false
	}
	runtime := ""
	if !ctx.Runtime.IsEmpty() {
		runtime = ctx.Runtime.Names()[0]
	}
	if !conn.ActiveInRuntime(runtime) {
		return conn, false
	}
	return conn, true
}

func replaceRange(dep modulegraph.Dependency, source *ReplaceSource, text string) {
	rng, ok := dep.SourceRange()
	if !ok {
		return
	}
	source.Replace(rng.Start, rng.End, text)
}

// esmImportTemplate handles a side-effect-only `import "x"` (no bindings
// consumed): the statement becomes a bare require call.
type esmImportTemplate struct{}

func (t *esmImportTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil {
		return
	}
	if !active {
		replaceRange(dep, source, "")
		return
	}
	replaceRange(dep, source, "__w_require__(\""+ctx.IDFor(conn.Target)+"\");")
}

// esmImportSpecifierTemplate handles a named/default/namespace import
// binding, rewritten to a local binding over the target's require result
// (ESM interop handles default/namespace mapping).
type esmImportSpecifierTemplate struct{}

func (t *esmImportSpecifierTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	ctx.AddRequirement(runtimereq.ESMInterop)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil {
		return
	}
	if !active {
		replaceRange(dep, source, "")
		return
	}
	if ctx.IsConcatenated() {
		replaceRange(dep, source, ctx.ConcatenationScope.ScopedReference(dep.Request()))
		return
	}
	replaceRange(dep, source, "esmInterop(__w_require__(\""+ctx.IDFor(conn.Target)+"\"))")
}

// esmExportTemplate registers a named export binding via the getters
// runtime module rather than rewriting any source range in place (the
// declaration itself stays, its value is additionally exposed).
type esmExportTemplate struct{}

func (t *esmExportTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.Exports)
	ctx.AddRequirement(runtimereq.DefinePropertyGetters)
	ctx.AddFragment(InitFragment{
		Stage:  1,
		Source: "definePropertyGetters(exports, { \"" + dep.Request() + "\": function() { return " + dep.Request() + "; } });",
	})
}

// esmExportStarTemplate handles `export * from "x"`: every name the target
// provides is re-exposed via a runtime helper rather than enumerated
// statically (the exports-info engine already resolved which names are
// actually used; codegen only needs to wire the mechanism).
type esmExportStarTemplate struct{}

func (t *esmExportStarTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	ctx.AddRequirement(runtimereq.DefinePropertyGetters)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		return
	}
	ctx.AddFragment(InitFragment{
		Stage:  1,
		Source: "definePropertyGetters(exports, __w_require__(\"" + ctx.IDFor(conn.Target) + "\"));",
	})
}

// esmDynamicImportTemplate handles `import("x")`: the expression becomes a
// chunk-ensure promise resolved to the target's require result.
type esmDynamicImportTemplate struct{}

func (t *esmDynamicImportTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.EnsureChunk)
	ctx.AddRequirement(runtimereq.RequireFn)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil {
		return
	}
	if !active {
		replaceRange(dep, source, "Promise.resolve()")
		return
	}
	id := ctx.IDFor(conn.Target)
	replaceRange(dep, source, "ensureChunk(\""+id+"\").then(function() { return esmInterop(__w_require__(\""+id+"\")); })")
}

// cjsRequireTemplate handles `require("x")` (and `require.ensure`-free
// full/AMD require variants, which reduce to the same bare call): replaced
// in place with the resolved require call.
type cjsRequireTemplate struct{}

func (t *cjsRequireTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil {
		return
	}
	if !active {
		replaceRange(dep, source, "({})")
		return
	}
	replaceRange(dep, source, "__w_require__(\""+ctx.IDFor(conn.Target)+"\")")
}

// requireResolveTemplate handles `require.resolve("x")`: only the id is
// needed, not the module's exports, so no require() call is emitted.
type requireResolveTemplate struct{}

func (t *requireResolveTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		replaceRange(dep, source, "\"\"")
		return
	}
	replaceRange(dep, source, "\""+ctx.IDFor(conn.Target)+"\"")
}

// requireContextTemplate handles a wildcard `require.context(...)` call:
// rewritten to a require of the synthesized context module itself.
type requireContextTemplate struct{}

func (t *requireContextTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	ctx.AddRequirement(runtimereq.ModuleFactories)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		return
	}
	replaceRange(dep, source, "__w_require__(\""+ctx.IDFor(conn.Target)+"\")")
}

// contextElementTemplate handles one enumerated entry of a context module
// (spec.md §4.1a, original_source/context_module_factory.rs): the context
// module's own generated body indexes into these per-element requires by
// user request string, so this template only needs the plain require call.
type contextElementTemplate struct{}

func (t *contextElementTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.RequireFn)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		return
	}
	replaceRange(dep, source, "__w_require__(\""+ctx.IDFor(conn.Target)+"\")")
}

// urlTemplate handles `new URL("x", import.meta.url)`/CSS `url(...)`
// references to an emitted asset: rewritten to a public-path-relative
// string.
type urlTemplate struct{}

func (t *urlTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.PublicPath)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		replaceRange(dep, source, "\"\"")
		return
	}
	replaceRange(dep, source, "(publicPath + \""+ctx.IDFor(conn.Target)+"\")")
}

// workerTemplate handles `new Worker(new URL("x", import.meta.url))`:
// rewritten to a script-creating bootstrap that loads the worker's own
// entry chunk.
type workerTemplate struct{}

func (t *workerTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
	ctx.AddRequirement(runtimereq.PublicPath)
	ctx.AddRequirement(runtimereq.CreateScript)
	ctx.AddRequirement(runtimereq.EnsureChunk)
	conn, active := resolveTarget(dep, ctx)
	if conn == nil || !active {
		replaceRange(dep, source, "undefined")
		return
	}
	replaceRange(dep, source, "new Worker(publicPath + \""+ctx.IDFor(conn.Target)+"\")")
}

// entryTemplate handles the synthetic EntryDependency seeding an entry
// point: it has no in-source call-site to rewrite, since the entry module
// is whatever file the entry config points to, not a require expression
// embedded in another module's source.
type entryTemplate struct{}

func (t *entryTemplate) Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext) {
}
