package modulegraph

// SourceType tags the closed set of output-relevant source kinds a module's
// generated code may belong to (spec.md §6), with an open extension point
// for custom tags.
type SourceType string

const (
	SourceTypeJavaScript SourceType = "javascript"
	SourceTypeCSS        SourceType = "css"
	SourceTypeCSSURL     SourceType = "css-url"
	SourceTypeCSSImport  SourceType = "css-import"
	SourceTypeWASM       SourceType = "wasm"
	SourceTypeAsset      SourceType = "asset"
	SourceTypeRuntime    SourceType = "runtime"
)

// ModuleType tags the closed set of module kinds (spec.md §6), with an open
// extension point for custom tags.
type ModuleType string

const (
	ModuleTypeJSAuto        ModuleType = "javascript/auto"
	ModuleTypeJSESM         ModuleType = "javascript/esm"
	ModuleTypeJSDynamic     ModuleType = "javascript/dynamic"
	ModuleTypeJSON          ModuleType = "json"
	ModuleTypeCSS           ModuleType = "css"
	ModuleTypeCSSModule     ModuleType = "css/module"
	ModuleTypeCSSAuto       ModuleType = "css/auto"
	ModuleTypeWASMSync      ModuleType = "webassembly/sync"
	ModuleTypeWASMAsync     ModuleType = "webassembly/async"
	ModuleTypeAsset         ModuleType = "asset"
	ModuleTypeAssetResource ModuleType = "asset/resource"
	ModuleTypeAssetInline   ModuleType = "asset/inline"
	ModuleTypeAssetSource   ModuleType = "asset/source"
	ModuleTypeRuntime       ModuleType = "runtime"
)

// DependencyType is an open string set used as a ModuleFactory dispatch key
// and, at code-generation time, to select a DependencyTemplate (spec.md §6).
// Well-known values are provided as constants; plugins may register their
// own.
type DependencyType string

const (
	DependencyTypeESMImport           DependencyType = "esm import"
	DependencyTypeESMImportSpecifier  DependencyType = "esm import specifier"
	DependencyTypeESMExport           DependencyType = "esm export"
	DependencyTypeESMExportStar       DependencyType = "esm export star"
	DependencyTypeESMDynamicImport    DependencyType = "esm dynamic import"
	DependencyTypeCJSRequire          DependencyType = "cjs require"
	DependencyTypeCJSFullRequire      DependencyType = "cjs full require"
	DependencyTypeAMDRequire          DependencyType = "amd require"
	DependencyTypeRequireResolve      DependencyType = "require.resolve"
	DependencyTypeRequireContext      DependencyType = "require.context"
	DependencyTypeContextElement      DependencyType = "context element"
	DependencyTypeWASMImport          DependencyType = "wasm import"
	DependencyTypeURL                 DependencyType = "url"
	DependencyTypeWorker              DependencyType = "worker"
	DependencyTypeEntry               DependencyType = "entry"
)

// DependencyCategory buckets dependency types by their resolution semantics.
type DependencyCategory string

const (
	DependencyCategoryESM      DependencyCategory = "esm"
	DependencyCategoryCommonJS DependencyCategory = "commonjs"
	DependencyCategoryURL      DependencyCategory = "url"
	DependencyCategoryWASM     DependencyCategory = "wasm"
	DependencyCategoryWorker   DependencyCategory = "worker"
)
