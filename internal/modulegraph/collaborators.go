package modulegraph

import (
	"context"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// ResourceData identifies a resolved resource on disk (or in a virtual
// FileSystem): the path plus the query/fragment a request may have carried.
type ResourceData struct {
	Path     string
	Query    string
	Fragment string
	Context  string
}

// Resolver is the external collaborator that turns a request (relative
// import specifier, bare module specifier, ...) plus a containing context
// directory into a ResourceData. Concrete filesystem/node_modules
// resolution is out of this core's scope (spec.md §1); the core only
// consumes this capability.
type Resolver interface {
	Resolve(ctx context.Context, request, fromContext string) (ResourceData, error)
}

// ResolveHookArgs/ResolveHookResult mirror hook.ResolveArgs/ResolveResult
// field-for-field without this package importing internal/hook: hook
// already imports modulegraph for its other hook argument types, so the
// dependency cannot run the other way. internal/compilation adapts
// between the two when it wires BuilderOptions.BeforeResolve from its own
// HookRegistry.
type ResolveHookArgs struct {
	Request string
	Context string
}

// ResolveHookResult is what a beforeResolve tap bails out with. An empty
// Resource means "ignore this dependency" (spec.md §4.8/testable scenario
// S6); the override-resource case a non-empty Resource would otherwise
// imply is not exercised by anything in this core and is left to a future
// caller that needs it.
type ResolveHookResult struct {
	Resource string
}

// FileSystem is the external collaborator for reading resource bytes and
// enumerating directories (used by the context-module factory's wildcard
// require.context walk). The core never touches the OS filesystem
// directly; everything goes through this capability so tests can supply an
// in-memory implementation.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
}

// DirEntry is one entry returned by FileSystem.ReadDir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileInfo is the subset of file metadata the core needs for cache-key
// computation (content hash is computed from the bytes, not from this).
type FileInfo struct {
	Size    int64
	ModTime int64
}

// LoaderRunner executes a resource's loader chain (internal/loader.Chain)
// and returns the final transformed source. It is a separate collaborator
// interface so internal/modulegraph does not import internal/loader
// directly; internal/compilation wires a concrete implementation.
type LoaderRunner interface {
	Run(ctx context.Context, resource ResourceData, loaderChain []string, fs FileSystem) ([]byte, []EmittedAsset, error)
}

// EmittedAsset is a file a loader produced as a side effect (e.g. a
// css-loader extracting an url() reference), returned by LoaderRunner.Run.
// Builder does not register it as an asset of the owning module.
type EmittedAsset struct {
	Filename string
	Content  []byte
}

// ParseResult is what a ParserAndGenerator.Parse call extracts from a
// module's final source: the three lists named in spec.md §4.1c.
type ParseResult struct {
	Dependencies       []Dependency
	Blocks             []*AsyncDependenciesBlock
	PresentationalDeps []Dependency

	// BlockDependencies holds the actual Dependency value for every id
	// a Blocks entry's Deps references (spec.md §4.1c: a block's
	// dependencies are scoped to that async boundary, not the module's
	// own top-level Dependencies, so they need a separate list to be
	// reachable at all once Parse returns only ids inside the block).
	BlockDependencies []Dependency

	// ProvidedExports is the statically known list of export names this
	// module provides, when the parser could determine it (ESM with no
	// dynamic re-export wildcards). Nil/unknown when the parser cannot
	// determine it statically (spec.md §4.3 "Provided" axis, Unknown
	// case) — the exports-info engine then falls back to marking every
	// export name Unknown rather than NotProvided.
	ProvidedExports []string

	// ReexportFrom lists, for each `export * from "x"` style re-export,
	// the dependency whose target module's own exports should be
	// unioned into this module's provided set once that module is
	// known (spec.md §4.3 "Nested ExportsInfo exists for re-exports").
	ReexportFrom []ident.DependencyId
}

// ParserAndGenerator is the external collaborator keyed by ModuleType that
// knows how to parse a module's source into a ParseResult and, later, how
// many/which source types its generated output occupies. Concrete
// JS/CSS/WASM parsers are out of this core's scope (spec.md §1).
type ParserAndGenerator interface {
	Parse(ctx context.Context, source []byte, resource ResourceData) (ParseResult, error)
	SourceTypes() []SourceType
}
