package codegen

import "github.com/jmylchreest/wbcore/internal/modulegraph"

// DependencyTemplate rewrites one dependency's effect on its owning
// module's generated code (spec.md §4.5): a range replacement, an init
// fragment, a context side effect, or any combination. Templates are pure
// functions of (dependency, module-graph, chunk-graph, runtime) once ctx's
// inputs are final — the same (dep, source, ctx) must always produce the
// same mutation.
type DependencyTemplate interface {
	Apply(dep modulegraph.Dependency, source *ReplaceSource, ctx *GenerationContext)
}

// TemplateRegistry maps DependencyType to its template, open for plugins to
// register custom dependency types (spec.md §6 "DependencyType is an open
// string set").
type TemplateRegistry struct {
	templates map[modulegraph.DependencyType]DependencyTemplate
}

// NewTemplateRegistry returns a registry preloaded with templates for every
// well-known DependencyType.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[modulegraph.DependencyType]DependencyTemplate)}
	registerBuiltinTemplates(r)
	return r
}

// Register adds or overrides the template for typ.
func (r *TemplateRegistry) Register(typ modulegraph.DependencyType, tmpl DependencyTemplate) {
	r.templates[typ] = tmpl
}

// For resolves the template registered for typ, if any.
func (r *TemplateRegistry) For(typ modulegraph.DependencyType) (DependencyTemplate, bool) {
	tmpl, ok := r.templates[typ]
	return tmpl, ok
}
