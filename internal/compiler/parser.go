package compiler

import (
	"context"
	"regexp"
	"strings"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

var (
	reDynamicImport   = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	reNamespaceImport = regexp.MustCompile(`import\s*\*\s*as\s+\w+\s*from\s*['"]([^'"]+)['"]`)
	reNamedImport     = regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*['"]([^'"]+)['"]`)
	reSideEffectImport = regexp.MustCompile(`import\s*['"]([^'"]+)['"]`)
	reRequire         = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	reNewURL          = regexp.MustCompile(`new URL\(\s*['"]([^'"]+)['"]\s*,\s*import\.meta\.url\s*\)`)
	reExportDecl      = regexp.MustCompile(`export\s+(?:const|let|var|function|class)\s+(\w+)`)
	reExportList      = regexp.MustCompile(`export\s*\{([^}]*)\}\s*;?\s*$`)
)

// JSParser is the fixture ParserAndGenerator for javascript/esm modules: a
// handful of regexes recognize the import/export/require forms the
// testdata fixtures use. Concrete AST-based parsing is out of this core's
// scope; the core only needs a parser that produces a faithful ParseResult
// shape.
type JSParser struct {
	Counters *ident.Counters
}

// SourceTypes implements modulegraph.ParserAndGenerator.
func (p *JSParser) SourceTypes() []modulegraph.SourceType {
	return []modulegraph.SourceType{modulegraph.SourceTypeJavaScript}
}

// Parse implements modulegraph.ParserAndGenerator.
func (p *JSParser) Parse(_ context.Context, source []byte, resource modulegraph.ResourceData) (modulegraph.ParseResult, error) {
	text := string(source)
	var result modulegraph.ParseResult

	for _, m := range reDynamicImport.FindAllStringSubmatch(text, -1) {
		dep := &dynamicImportDependency{modulegraph.BaseDependency{
			Id:  p.Counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryESM,
			Typ: modulegraph.DependencyTypeESMDynamicImport,
			Req: m[1],
		}}
		block := &modulegraph.AsyncDependenciesBlock{
			Id:     p.Counters.NextBlockID(),
			Parent: ident.ModuleIdentifier{},
			Deps:   []ident.DependencyId{dep.ID()},
		}
		result.Blocks = append(result.Blocks, block)
		result.BlockDependencies = append(result.BlockDependencies, dep)
	}
	text = reDynamicImport.ReplaceAllString(text, "")

	for _, m := range reNamespaceImport.FindAllStringSubmatch(text, -1) {
		result.Dependencies = append(result.Dependencies, &namespaceImportDependency{modulegraph.BaseDependency{
			Id:  p.Counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryESM,
			Typ: modulegraph.DependencyTypeESMImportSpecifier,
			Req: m[1],
		}})
	}
	text = reNamespaceImport.ReplaceAllString(text, "")

	for _, m := range reNamedImport.FindAllStringSubmatch(text, -1) {
		var names []string
		for _, raw := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(strings.Fields(strings.TrimSpace(raw))[0])
			if name != "" {
				names = append(names, name)
			}
		}
		result.Dependencies = append(result.Dependencies, &namedImportDependency{
			BaseDependency: modulegraph.BaseDependency{
				Id:  p.Counters.NextDependencyID(),
				Cat: modulegraph.DependencyCategoryESM,
				Typ: modulegraph.DependencyTypeESMImportSpecifier,
				Req: m[2],
			},
			Names: names,
		})
	}
	text = reNamedImport.ReplaceAllString(text, "")

	for _, m := range reNewURL.FindAllStringSubmatchIndex(string(source), -1) {
		result.Dependencies = append(result.Dependencies, &urlDependency{modulegraph.BaseDependency{
			Id:       p.Counters.NextDependencyID(),
			Cat:      modulegraph.DependencyCategoryURL,
			Typ:      modulegraph.DependencyTypeURL,
			Req:      string(source)[m[2]:m[3]],
			Rng:      modulegraph.Range{Start: m[0], End: m[1]},
			HasRange: true,
		}})
	}
	text = reNewURL.ReplaceAllString(text, "")

	for _, m := range reSideEffectImport.FindAllStringSubmatch(text, -1) {
		result.Dependencies = append(result.Dependencies, &sideEffectImportDependency{modulegraph.BaseDependency{
			Id:  p.Counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryESM,
			Typ: modulegraph.DependencyTypeESMImport,
			Req: m[1],
		}})
	}
	text = reSideEffectImport.ReplaceAllString(text, "")

	for _, m := range reRequire.FindAllStringSubmatch(text, -1) {
		result.Dependencies = append(result.Dependencies, &modulegraph.BaseDependency{
			Id:  p.Counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryCommonJS,
			Typ: modulegraph.DependencyTypeCJSRequire,
			Req: m[1],
		})
	}

	var provided []string
	for _, m := range reExportDecl.FindAllStringSubmatch(text, -1) {
		provided = append(provided, m[1])
	}
	if m := reExportList.FindStringSubmatch(text); m != nil {
		for _, raw := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(raw)
			if name != "" {
				provided = append(provided, name)
			}
		}
	}
	if provided != nil {
		result.ProvidedExports = provided
	}

	return result, nil
}

// CSSParser is the fixture ParserAndGenerator for css modules: it only
// recognizes url(...) references to other assets, mirroring the JS
// parser's urlDependency handling.
type CSSParser struct {
	Counters *ident.Counters
}

var reCSSURL = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// SourceTypes implements modulegraph.ParserAndGenerator.
func (p *CSSParser) SourceTypes() []modulegraph.SourceType {
	return []modulegraph.SourceType{modulegraph.SourceTypeCSS}
}

// Parse implements modulegraph.ParserAndGenerator.
func (p *CSSParser) Parse(_ context.Context, source []byte, _ modulegraph.ResourceData) (modulegraph.ParseResult, error) {
	var result modulegraph.ParseResult
	for _, m := range reCSSURL.FindAllStringSubmatch(string(source), -1) {
		result.Dependencies = append(result.Dependencies, &urlDependency{modulegraph.BaseDependency{
			Id:  p.Counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryURL,
			Typ: modulegraph.DependencyTypeURL,
			Req: m[1],
		}})
	}
	return result, nil
}

// AssetParser is the fixture ParserAndGenerator for asset modules: an
// asset has no further dependencies, its bytes are the generated output
// verbatim.
type AssetParser struct{}

// SourceTypes implements modulegraph.ParserAndGenerator.
func (AssetParser) SourceTypes() []modulegraph.SourceType {
	return []modulegraph.SourceType{modulegraph.SourceTypeAsset}
}

// Parse implements modulegraph.ParserAndGenerator.
func (AssetParser) Parse(_ context.Context, _ []byte, _ modulegraph.ResourceData) (modulegraph.ParseResult, error) {
	return modulegraph.ParseResult{}, nil
}
