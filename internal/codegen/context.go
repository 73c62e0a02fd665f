// Package codegen implements the Dependency Code-Generation Framework
// (spec.md §4.5): per-(module, runtime) source rewriting driven by
// per-dependency-type templates, producing a cached GenerationResult.
package codegen

import (
	"github.com/jmylchreest/wbcore/internal/exportsinfo"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// CompilationView is the read-only slice of Compilation a template needs:
// the module graph (to resolve a dependency's target) and the exports-info
// registry (to decide whether a reexport or named binding is actually
// used, and so may be elided). Defined here rather than importing
// internal/compilation to avoid a cycle (compilation will depend on
// codegen, not the reverse).
type CompilationView interface {
	ModuleGraph() *modulegraph.Graph
	ExportsInfo() *exportsinfo.Registry
}

// ConcatenationScope is present on GenerationContext when a module has been
// folded into a concatenated group (module concatenation / "scope
// hoisting"); templates must emit a scoped reference instead of a require
// call in this case (spec.md §4.5).
type ConcatenationScope struct {
	// ModuleName is the namespace variable the concatenated group shares.
	ModuleName string
	// symbols maps this module's export name to its hoisted binding name
	// inside the concatenated scope.
	symbols map[string]string
}

// NewConcatenationScope returns a scope for a concatenated group sharing
// namespace variable moduleName.
func NewConcatenationScope(moduleName string) *ConcatenationScope {
	return &ConcatenationScope{ModuleName: moduleName, symbols: make(map[string]string)}
}

// RegisterSymbol records the hoisted binding name for an export of the
// module owning this scope.
func (cs *ConcatenationScope) RegisterSymbol(exportName, bindingName string) {
	cs.symbols[exportName] = bindingName
}

// ScopedReference returns how another module's export should be referenced
// from inside this concatenated scope: the hoisted binding name if the
// exporting module registered one, otherwise a property access off the
// shared namespace variable.
func (cs *ConcatenationScope) ScopedReference(exportName string) string {
	if bound, ok := cs.symbols[exportName]; ok {
		return bound
	}
	return cs.ModuleName + "." + exportName
}

// GenerationContext is the mutable state threaded through every
// DependencyTemplate invocation for one (module, runtime) code-generation
// pass (spec.md §4.5 "Context").
type GenerationContext struct {
	Compilation  CompilationView
	Module       modulegraph.Module
	Runtime      runtimespec.Spec
	Requirements runtimereq.Requirements
	Fragments    *FragmentList

	// ConcatenationScope is nil unless Module is part of a concatenated
	// group.
	ConcatenationScope *ConcatenationScope

	// ModuleIDs maps every module reachable from this generation pass to
	// its assigned output id (internal/chunkgraph.SortedModuleIDs),
	// letting templates render `__w_require__("<id>")` calls without
	// reaching back into the chunk graph themselves.
	ModuleIDs map[ident.ModuleIdentifier]string
}

// NewGenerationContext builds a fresh context for one (module, runtime)
// generation pass.
func NewGenerationContext(compilation CompilationView, module modulegraph.Module, runtime runtimespec.Spec, moduleIDs map[ident.ModuleIdentifier]string) *GenerationContext {
	return &GenerationContext{
		Compilation: compilation,
		Module:      module,
		Runtime:     runtime,
		Fragments:   NewFragmentList(),
		ModuleIDs:   moduleIDs,
	}
}

// AddRequirement unions bit into the accumulated runtime requirements
// (spec.md §4.5 "a side effect on the code-gen context: add a
// runtime-requirement flag").
func (ctx *GenerationContext) AddRequirement(bit runtimereq.Requirements) {
	ctx.Requirements = ctx.Requirements.Union(bit)
}

// AddFragment records an init fragment emitted by a template.
func (ctx *GenerationContext) AddFragment(f InitFragment) {
	ctx.Fragments.Add(f)
}

// IDFor resolves a module's assigned output id, falling back to its raw
// identifier string if ModuleIDs has no entry (e.g. ids.go has not run
// yet, as in unit tests exercising a single template in isolation).
func (ctx *GenerationContext) IDFor(id ident.ModuleIdentifier) string {
	if ctx.ModuleIDs != nil {
		if assigned, ok := ctx.ModuleIDs[id]; ok {
			return assigned
		}
	}
	return id.String()
}

// IsConcatenated reports whether this module is part of a concatenated
// group.
func (ctx *GenerationContext) IsConcatenated() bool {
	return ctx.ConcatenationScope != nil
}
