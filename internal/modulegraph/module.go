package modulegraph

import "github.com/jmylchreest/wbcore/internal/ident"

// BuildInfo is the metadata recorded about how a module was last built,
// used both for rebuild-skip decisions (spec.md §4.1b "unchanged build
// inputs") and for the incremental cache keys (spec.md §9).
type BuildInfo struct {
	FileHash   string
	LoaderHash string
	DepsHash   string
	Errored    bool
}

// BuildMeta carries flags the ParserAndGenerator records about the module's
// shape (e.g. "this is an ESM module with static exports only") that later
// phases (exports-info, concatenation) consult without re-parsing.
type BuildMeta struct {
	ESM      bool
	SideEffects *bool // nil = unknown, use package.json/heuristic default
}

// Module is the capability interface every module variant implements
// (spec.md §9 "capability traits": identify, source, build, get-deps,
// codegen-hash). Concrete variants are NormalModule, ContextModule,
// RawModule, ExternalModule.
type Module interface {
	Identifier() ident.ModuleIdentifier
	Type() ModuleType
	Context() string
	Layer() string
	Source() []byte
	Info() BuildInfo
	Meta() BuildMeta
	Dependencies() []ident.DependencyId
	Blocks() []ident.BlockIdentifier
	PresentationalDependencies() []ident.DependencyId

	// ProvidedExports is the statically known export name list, nil if
	// the parser could not determine it (spec.md §4.3 "Provided" axis).
	ProvidedExports() ([]string, bool)
	// ReexportFrom lists dependencies this module wildcard-reexports
	// from (`export * from "x"`), consulted by the exports-info engine
	// to union a re-exported module's names into this one's.
	ReexportFrom() []ident.DependencyId

	// AsNormalModule etc. are the explicit downcast probes spec.md §9
	// requires instead of RTTI on hot paths.
	AsNormalModule() (*NormalModule, bool)
	AsContextModule() (*ContextModule, bool)
	AsRawModule() (*RawModule, bool)
	AsExternalModule() (*ExternalModule, bool)
}

// baseModule holds the fields common to every variant.
type baseModule struct {
	id           ident.ModuleIdentifier
	typ          ModuleType
	context      string
	layer        string
	source       []byte
	buildInfo    BuildInfo
	buildMeta    BuildMeta
	deps         []ident.DependencyId
	blocks       []ident.BlockIdentifier
	presDeps     []ident.DependencyId

	providedExports      []string
	providedExportsKnown bool
	reexportFrom         []ident.DependencyId
}

func (m *baseModule) Identifier() ident.ModuleIdentifier             { return m.id }
func (m *baseModule) Type() ModuleType                               { return m.typ }
func (m *baseModule) Context() string                                { return m.context }
func (m *baseModule) Layer() string                                  { return m.layer }
func (m *baseModule) Source() []byte                                 { return m.source }
func (m *baseModule) Info() BuildInfo                                { return m.buildInfo }
func (m *baseModule) Meta() BuildMeta                                { return m.buildMeta }
func (m *baseModule) Dependencies() []ident.DependencyId             { return m.deps }
func (m *baseModule) Blocks() []ident.BlockIdentifier                { return m.blocks }
func (m *baseModule) PresentationalDependencies() []ident.DependencyId { return m.presDeps }

// AddDependencyID appends a DependencyId to this module's own dependency
// list. Builder uses this path implicitly while parsing; plugins that
// synthesize additional edges after the fact (e.g. a side-effect injection
// pass) use it directly.
func (m *baseModule) AddDependencyID(id ident.DependencyId) { m.deps = append(m.deps, id) }

// AddBlockID appends a BlockIdentifier to this module's own block list,
// the same kind of direct-registration seam AddDependencyID provides.
func (m *baseModule) AddBlockID(id ident.BlockIdentifier) { m.blocks = append(m.blocks, id) }

func (m *baseModule) ProvidedExports() ([]string, bool) { return m.providedExports, m.providedExportsKnown }
func (m *baseModule) ReexportFrom() []ident.DependencyId { return m.reexportFrom }

// SetProvidedExports records the parser's static export analysis (spec.md
// §4.3). Called once by Builder after a successful Parse.
func (m *baseModule) SetProvidedExports(names []string, reexportFrom []ident.DependencyId) {
	m.providedExports = names
	m.providedExportsKnown = true
	m.reexportFrom = reexportFrom
}

func (m *baseModule) AsNormalModule() (*NormalModule, bool)     { return nil, false }
func (m *baseModule) AsContextModule() (*ContextModule, bool)   { return nil, false }
func (m *baseModule) AsRawModule() (*RawModule, bool)           { return nil, false }
func (m *baseModule) AsExternalModule() (*ExternalModule, bool) { return nil, false }

// NormalModule is a module backed by a resolved resource on disk, built
// through the loader pipeline and parsed by a ParserAndGenerator (the
// common case: .js/.ts/.css/.wasm files).
type NormalModule struct {
	baseModule
	Resource    ResourceData
	LoaderChain []string
}

// AsNormalModule implements Module.
func (m *NormalModule) AsNormalModule() (*NormalModule, bool) { return m, true }

// NewNormalModule constructs a NormalModule with the given identity and
// type; its source/deps/blocks are populated later by Builder.buildModule.
func NewNormalModule(id ident.ModuleIdentifier, typ ModuleType, resource ResourceData, loaderChain []string, layer string) *NormalModule {
	return &NormalModule{
		baseModule: baseModule{id: id, typ: typ, context: resource.Context, layer: layer},
		Resource:    resource,
		LoaderChain: loaderChain,
	}
}

// ContextModule represents a wildcard require.context import: it does not
// read a single resource but enumerates a directory and holds one
// ContextElementDependency per matching entry (spec.md §4.1a).
type ContextModule struct {
	baseModule
	Directory string
	Regex     string
	Recursive bool
}

// AsContextModule implements Module.
func (m *ContextModule) AsContextModule() (*ContextModule, bool) { return m, true }

// NewContextModule constructs a ContextModule.
func NewContextModule(id ident.ModuleIdentifier, directory, regex string, recursive bool, layer string) *ContextModule {
	return &ContextModule{
		baseModule: baseModule{id: id, typ: ModuleTypeJSDynamic, context: directory, layer: layer},
		Directory:   directory,
		Regex:       regex,
		Recursive:   recursive,
	}
}

// RawModule is a synthetic module with a literal, fixed source — used for
// ignored-optional-dependency placeholders (spec.md §4.1 "Error
// semantics") and for runtime modules (internal/runtimereq).
type RawModule struct {
	baseModule
	Readable string // human label, e.g. "(ignored)"
}

// AsRawModule implements Module.
func (m *RawModule) AsRawModule() (*RawModule, bool) { return m, true }

// NewRawModule constructs a RawModule with literal source bytes.
func NewRawModule(id ident.ModuleIdentifier, typ ModuleType, source []byte, readable string) *RawModule {
	return &RawModule{
		baseModule: baseModule{id: id, typ: typ, source: source},
		Readable:    readable,
	}
}

// ExternalModule represents a dependency resolved to an external runtime
// global/module rather than bundled source (e.g. webpack `externals`).
type ExternalModule struct {
	baseModule
	ExternalType string // "var", "commonjs", "module", "umd", ...
	ExternalRequest string
}

// AsExternalModule implements Module.
func (m *ExternalModule) AsExternalModule() (*ExternalModule, bool) { return m, true }

// NewExternalModule constructs an ExternalModule.
func NewExternalModule(id ident.ModuleIdentifier, externalType, request string) *ExternalModule {
	return &ExternalModule{
		baseModule:      baseModule{id: id, typ: ModuleTypeJSAuto},
		ExternalType:    externalType,
		ExternalRequest: request,
	}
}
