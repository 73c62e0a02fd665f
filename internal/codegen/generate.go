package codegen

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// GenerationResult is the output of one (module, runtime) code-generation
// pass (spec.md §4.5 "Output is cached by (module-id, runtime-hash) in the
// CodeGenerationResults artifact").
type GenerationResult struct {
	ModuleID     ident.ModuleIdentifier
	Runtime      runtimespec.Spec
	SourceType   modulegraph.SourceType
	Body         string
	Requirements runtimereq.Requirements
	Fragments    []InitFragment
}

// sourceTypeFor maps a ModuleType to the SourceType its generated body
// belongs to (spec.md §6).
func sourceTypeFor(typ modulegraph.ModuleType) modulegraph.SourceType {
	switch typ {
	case modulegraph.ModuleTypeCSS, modulegraph.ModuleTypeCSSModule, modulegraph.ModuleTypeCSSAuto:
		return modulegraph.SourceTypeCSS
	case modulegraph.ModuleTypeWASMSync, modulegraph.ModuleTypeWASMAsync:
		return modulegraph.SourceTypeWASM
	case modulegraph.ModuleTypeAsset, modulegraph.ModuleTypeAssetResource, modulegraph.ModuleTypeAssetInline, modulegraph.ModuleTypeAssetSource:
		return modulegraph.SourceTypeAsset
	case modulegraph.ModuleTypeRuntime:
		return modulegraph.SourceTypeRuntime
	default:
		return modulegraph.SourceTypeJavaScript
	}
}

// Generate runs code generation for one (module, runtime) pair: every
// dependency's template is applied in turn (source-range order is
// resolved once by ReplaceSource.Render, so application order here does
// not need to match source order), the rewritten body is wrapped in the
// module's envelope, and init fragments are rendered around it (spec.md
// §4.5 "Composition"). Generate is a pure function of its inputs, so two
// calls with identical (module, runtime, compilation state) produce an
// identical result (spec.md §5 "Code generation per module is idempotent").
func Generate(module modulegraph.Module, runtime runtimespec.Spec, compilation CompilationView, templates *TemplateRegistry, moduleIDs map[ident.ModuleIdentifier]string, scope *ConcatenationScope) (*GenerationResult, error) {
	ctx := NewGenerationContext(compilation, module, runtime, moduleIDs)
	ctx.ConcatenationScope = scope

	source := NewReplaceSource(module.Source())

	depIDs := make([]ident.DependencyId, 0, len(module.Dependencies())+len(module.PresentationalDependencies()))
	depIDs = append(depIDs, module.Dependencies()...)
	depIDs = append(depIDs, module.PresentationalDependencies()...)

	for _, depID := range depIDs {
		dep, ok := compilation.ModuleGraph().Dependency(depID)
		if !ok {
			continue
		}
		tmpl, ok := templates.For(dep.Type())
		if !ok {
			continue
		}
		tmpl.Apply(dep, source, ctx)
	}

	rewritten, err := source.Render()
	if err != nil {
		return nil, err
	}

	envelope := envelopeFor(ctx)
	id := ctx.IDFor(module.Identifier())
	wrapped := envelope.Wrap(id, rewritten)
	body := ctx.Fragments.Render(wrapped)

	return &GenerationResult{
		ModuleID:     module.Identifier(),
		Runtime:      runtime,
		SourceType:   sourceTypeFor(module.Type()),
		Body:         body,
		Requirements: ctx.Requirements,
		Fragments:    ctx.Fragments.Sorted(),
	}, nil
}
