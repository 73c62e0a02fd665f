package compiler

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/compilation"
	"github.com/jmylchreest/wbcore/internal/config"
	"github.com/jmylchreest/wbcore/internal/hook"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// Re-exported so a caller of this facade never has to import
// internal/compilation or internal/modulegraph directly for the handful
// of types it needs to drive a build.
type (
	Compilation  = compilation.Compilation
	Options      = compilation.Options
	Result       = compilation.Result
	EntryRequest = modulegraph.EntryRequest
	Plugin       = hook.Plugin
)

// Build is everything a fixture-backed build needs besides its source
// files: the entries to compile and the resolved configuration to run
// under.
type Build struct {
	FS      *MemFS
	Entries []EntryRequest
	Config  *config.Config
	Plugins []hook.Plugin
	Logger  *slog.Logger

	// Cache, if set, is threaded straight through to
	// compilation.Options.Cache: a caller that wants incremental rebuilds
	// (cmd/wbcore's watch subcommand) loads or creates one
	// *cache.UnaffectedModulesCache up front and passes the same instance
	// to every New/Run call across rebuilds, so later builds see what
	// earlier ones recorded.
	//
	// Table must also be set to the same shared instance whenever Cache
	// is: ModuleIdentifier equality is a pointer comparison scoped to the
	// Table it was interned through (internal/ident), so a Cache consulted
	// against identifiers from a different Table never matches anything.
	Cache *cache.UnaffectedModulesCache
	Table *ident.Table

	// CacheGroups is threaded straight through to
	// compilation.Options.CacheGroups: named refs in
	// Config.SplitChunks.CacheGroups are resolved to concrete predicates
	// by the caller (cmd/wbcore's splitChunksCacheGroups), since this
	// facade has no module-type knowledge of its own to do that
	// resolution.
	CacheGroups []chunkgraph.CacheGroup
}

// New wires fs's fixture collaborators (Factory, JS/CSS/asset parsers,
// FixtureLoaderRunner) into a Compilation, sharing one ident.Table and
// ident.Counters pair between the collaborators built here and the
// Compilation itself (compilation.Options.Counters/Table), since the
// parsers must allocate dependency/block ids from the same counters the
// Compilation's own module graph will key its connections against.
func New(b Build) *Compilation {
	table := b.Table
	if table == nil {
		table = ident.NewTable()
	}
	counters := ident.NewCounters()

	factory := NewFactory(b.FS, table)
	factories := modulegraph.NewFactoryRegistry()
	for _, depType := range []modulegraph.DependencyType{
		modulegraph.DependencyTypeEntry,
		modulegraph.DependencyTypeESMImport,
		modulegraph.DependencyTypeESMImportSpecifier,
		modulegraph.DependencyTypeESMDynamicImport,
		modulegraph.DependencyTypeCJSRequire,
		modulegraph.DependencyTypeURL,
	} {
		factories.Register(depType, factory)
	}

	parsers := map[modulegraph.ModuleType]modulegraph.ParserAndGenerator{
		modulegraph.ModuleTypeJSESM:         &JSParser{Counters: counters},
		modulegraph.ModuleTypeCSS:           &CSSParser{Counters: counters},
		modulegraph.ModuleTypeAssetResource: AssetParser{},
	}

	cfg := b.Config
	if cfg == nil {
		cfg, _ = config.Load("")
	}

	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return compilation.New(compilation.Options{
		Config:      cfg,
		Entries:     b.Entries,
		Factories:   factories,
		Loader:      FixtureLoaderRunner{},
		FS:          b.FS,
		Parsers:     parsers,
		Counters:    counters,
		Table:       table,
		Plugins:     b.Plugins,
		Logger:      logger,
		Cache:       b.Cache,
		CacheGroups: b.CacheGroups,
	})
}

// Run is a convenience wrapper: construct a Compilation per New's wiring
// and drive it to completion in one call, the shape most callers (and
// cmd/wbcore's one-shot `build` subcommand) actually want.
func Run(ctx context.Context, b Build) (*Compilation, *Result, error) {
	c := New(b)
	result, err := c.Run(ctx)
	return c, result, err
}
