// Package compilation implements the top-level orchestration facade: one
// Compilation drives a single build from a set of entry requests through
// the make, exports-info, chunk-graph, codegen, runtime-requirement and
// render phases (spec.md §2, §3 "Compilation"). It is grounded on the
// teacher's pipeline/core.Orchestrator: phase-by-phase execution with
// structured start/stage-complete logging and context-cancellation
// checked between phases, generalized from the teacher's configurable
// stage list to the bundler's fixed six-phase pipeline.
package compilation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/codegen"
	"github.com/jmylchreest/wbcore/internal/config"
	"github.com/jmylchreest/wbcore/internal/diagnostic"
	"github.com/jmylchreest/wbcore/internal/exportsinfo"
	"github.com/jmylchreest/wbcore/internal/hook"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/introspect"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/observability"
	"github.com/jmylchreest/wbcore/internal/render"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// Options bundles everything a Compilation needs that the core itself
// cannot provide: the resolved configuration, the entry requests, and
// every external collaborator (spec.md §1 "The core never touches the
// network or the OS filesystem directly").
type Options struct {
	Config *config.Config

	Entries   []modulegraph.EntryRequest
	Factories *modulegraph.FactoryRegistry
	Loader    modulegraph.LoaderRunner
	FS        modulegraph.FileSystem
	Parsers   map[modulegraph.ModuleType]modulegraph.ParserAndGenerator

	// Templates defaults to codegen.NewTemplateRegistry() (every
	// well-known DependencyType) when nil.
	Templates *codegen.TemplateRegistry
	// Resolver defaults to runtimereq.NewResolver() (every builtin
	// runtime-module capability) when nil.
	Resolver *runtimereq.Resolver

	// CacheGroups configures the optional split-chunks pass (spec.md
	// §4.4 step 5). Named refs in Config.SplitChunks.CacheGroups are a
	// presentation-layer convenience for config files; resolving a name
	// to a concrete chunkgraph.CacheGroup.Test predicate requires
	// module-type knowledge this facade doesn't have, so callers supply
	// the resolved predicates directly here.
	CacheGroups []chunkgraph.CacheGroup

	// Cache, if set, is consulted after the build completes: fresh
	// per-module keys are recomputed and recorded into it so the next
	// Compilation sharing this cache can later decide what to skip
	// (spec.md §9). A nil Cache disables this bookkeeping entirely; the
	// build itself is unaffected either way, since the decision to skip
	// phases for unaffected modules is the caller's to make between
	// Compilations, not something this single-build facade does to
	// itself.
	Cache *cache.UnaffectedModulesCache

	// Counters and Table, if set, are used instead of a fresh instance.
	// A caller that constructs its own ModuleFactory/ParserAndGenerator
	// collaborators ahead of New (so it can register them into
	// Factories/Parsers before a Compilation exists to hand them one)
	// needs to share the very Counters/Table this Compilation allocates
	// identifiers from, or the collaborator's ModuleIdentifiers would
	// never compare equal to the ones this Compilation interns. Nil
	// means "allocate a fresh instance", as before.
	Counters *ident.Counters
	Table    *ident.Table

	Plugins []hook.Plugin
	Logger  *slog.Logger
}

// Result is what Run returns: every emitted asset plus any diagnostic
// accumulated along the way (spec.md §2 "A build either produces assets
// or fails with diagnostics; it is never silent about errors").
type Result struct {
	Assets      map[string]render.Asset
	Diagnostics []*diagnostic.Diagnostic
}

// Compilation holds the state one build accumulates across phases. A
// fresh Compilation is created per build; there is no reuse across builds
// and no process-wide singleton (spec.md §9).
type Compilation struct {
	opts Options

	// BuildID identifies this Compilation uniquely, generated fresh per
	// New call. The [hash] filename token is derived from it (see
	// buildHashToken), and it is attached to every log line this
	// Compilation emits, so log lines from concurrent builds in the same
	// process never interleave ambiguously.
	BuildID uuid.UUID

	counters *ident.Counters
	table    *ident.Table

	ModuleGraph *modulegraph.Graph
	Exports     *exportsinfo.Registry
	ChunkGraph  *chunkgraph.Graph
	CodeGen     *codegen.CodeGenerationResults

	ModuleIDs map[ident.ModuleIdentifier]string
	ChunkIDs  map[ident.ChunkUkey]string
	Assets    map[string]render.Asset

	Hooks *hook.HookRegistry

	entrySeeds     []entrySeed
	chunkBuilder   *chunkgraph.Builder
	runtimeModules map[ident.ChunkUkey][]runtimereq.RuntimeModule

	// CacheDecisions records, for each module, what a following build
	// could have skipped had this build's Options.Cache already held the
	// entries this build just recomputed. Populated by Run only when
	// Options.Cache is non-nil; nil otherwise.
	CacheDecisions map[ident.ModuleIdentifier]cache.BuildDecision

	diags  diagnostic.Bag
	logger *slog.Logger
}

var _ codegen.CompilationView = (*view)(nil)

// view adapts a Compilation to codegen.CompilationView's exact method
// names (ModuleGraph/ExportsInfo), kept as a separate type since
// Compilation's own fields of the same concept are plain struct fields,
// not methods.
type view struct{ c *Compilation }

func (v *view) ModuleGraph() *modulegraph.Graph    { return v.c.ModuleGraph }
func (v *view) ExportsInfo() *exportsinfo.Registry { return v.c.Exports }

// New constructs a Compilation, wiring every configured plugin's taps into
// a fresh HookRegistry plus the default id-assignment plugins (spec.md
// §4.8: default behavior is itself a plugin tapping a named hook, not a
// special case the core hardcodes around plugin extension).
func New(opts Options) *Compilation {
	if opts.Templates == nil {
		opts.Templates = codegen.NewTemplateRegistry()
	}
	if opts.Resolver == nil {
		opts.Resolver = runtimereq.NewResolver()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	counters := opts.Counters
	if counters == nil {
		counters = ident.NewCounters()
	}
	table := opts.Table
	if table == nil {
		table = ident.NewTable()
	}

	buildID := uuid.New()
	c := &Compilation{
		opts:        opts,
		BuildID:     buildID,
		counters:    counters,
		table:       table,
		ModuleGraph: modulegraph.NewGraph(),
		Exports:     exportsinfo.NewRegistry(),
		ModuleIDs:   make(map[ident.ModuleIdentifier]string),
		ChunkIDs:    make(map[ident.ChunkUkey]string),
		Assets:      make(map[string]render.Asset),
		Hooks:       hook.NewHookRegistry(),
		logger:      opts.Logger.With(slog.String("build_id", buildID.String())),
	}
	c.registerDefaultIDPlugins()
	hook.Apply(c.Hooks, c.logger, &c.diags, opts.Plugins...)
	return c
}

// registerDefaultIDPlugins taps ModuleIds/ChunkIds with the default
// deterministic numbering scheme: modules and chunks sorted by their
// stable identifier, numbered sequentially from zero. This tap registers
// at stage 0 before any plugin is applied. Taps run in (stage,
// registration order), so a user plugin tapping the same hook at stage 0
// or later runs after it and can see and override its output, while one
// at a negative stage runs first and has its entries overwritten.
func (c *Compilation) registerDefaultIDPlugins() {
	c.Hooks.ModuleIds.Tap(0, "default-module-ids", func(_ context.Context, args *hook.ModuleGraphArgs) error {
		ids := args.Graph.SortedModuleIDs()
		for i, id := range ids {
			c.ModuleIDs[id] = strconv.Itoa(i)
		}
		return nil
	})
	c.Hooks.ChunkIds.Tap(0, "default-chunk-ids", func(_ context.Context, args *hook.ChunkGraphArgs) error {
		ukeys := args.Graph.SortedChunkUkeys()
		names := make(map[ident.ChunkUkey]string, len(ukeys))
		for _, u := range ukeys {
			if ch, ok := args.Graph.Chunk(u); ok && ch.Name != "" {
				names[u] = ch.Name
			}
		}
		for i, u := range ukeys {
			if name, ok := names[u]; ok {
				c.ChunkIDs[u] = name
			} else {
				c.ChunkIDs[u] = strconv.Itoa(i)
			}
		}
		return nil
	})
}

// Diagnostics returns every diagnostic recorded so far, across every
// phase that has run.
func (c *Compilation) Diagnostics() []*diagnostic.Diagnostic { return c.diags.All() }

// Intern resolves s through this Compilation's own interning table, the
// same one every ModuleIdentifier in its ModuleGraph was built from. A
// caller driving a build through a facade (internal/compiler) that never
// sees the table directly still needs this to look up a known resource
// path's module after Run returns.
func (c *Compilation) Intern(s string) ident.ModuleIdentifier { return c.table.Intern(s) }

// Run drives one build to completion: make, exports-info, chunk-graph,
// codegen, runtime-requirement and render, in that fixed order (spec.md
// §2). ctx.Done() is checked before each phase; a cancelled build returns
// no Result, only a phase error wrapping ctx.Err().
func (c *Compilation) Run(ctx context.Context) (*Result, error) {
	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"make", c.runMakePhase},
		{"exports-info", c.runExportsInfoPhase},
		{"chunk-graph", c.runChunkGraphPhase},
		{"codegen", c.runCodegenPhase},
		{"runtime-requirement", c.runRuntimeRequirementPhase},
		{"render", c.runRenderPhase},
	}

	for _, phase := range phases {
		select {
		case <-ctx.Done():
			return nil, diagnostic.NewPhaseError(phase.name, ctx.Err())
		default:
		}

		phaseCtx := observability.ContextWithPhase(ctx, phase.name)
		phaseLogger := observability.WithPhase(c.logger, phase.name)

		phaseLogger.InfoContext(phaseCtx, "phase starting")
		if err := phase.run(phaseCtx); err != nil {
			phaseLogger.ErrorContext(phaseCtx, "phase failed", slog.Any("error", err))
			return nil, diagnostic.NewPhaseError(phase.name, err)
		}
		phaseLogger.InfoContext(phaseCtx, "phase complete")
	}

	if c.opts.Cache != nil {
		if err := c.runCachePhase(ctx); err != nil {
			return nil, diagnostic.NewPhaseError("cache", err)
		}
	}

	return &Result{Assets: c.Assets, Diagnostics: c.diags.All()}, nil
}

// runCachePhase recomputes every module's CacheEntry against the just-built
// graphs, records per-module decisions a following build could have made
// against whatever Options.Cache held on entry, then overwrites the cache
// with the fresh entries (spec.md §9 "between builds: recompute keys in
// parallel and decide what to skip").
func (c *Compilation) runCachePhase(ctx context.Context) error {
	fresh, err := cache.RecomputeKeys(ctx, c.ModuleGraph, c.ChunkGraph, c.opts.Config.Output.Parallelism)
	if err != nil {
		return fmt.Errorf("recomputing cache keys: %w", err)
	}

	c.CacheDecisions = make(map[ident.ModuleIdentifier]cache.BuildDecision, len(fresh))
	for id, entry := range fresh {
		c.CacheDecisions[id] = c.opts.Cache.Decide(id, entry)
		c.opts.Cache.Set(id, entry)
	}
	return nil
}

// Snapshot flattens this Compilation's current module graph, chunk graph
// and assets into the read-only shape internal/introspect serves over
// HTTP (spec.md §10). Safe to call at any point after Run returns.
func (c *Compilation) Snapshot() *introspect.Snapshot {
	return introspect.BuildSnapshot(c.ModuleGraph, c.ChunkGraph, c.Assets)
}

// entrySeed is the make-phase seed for one configured entry: its
// dependency ids (one per Import path, in order) and the EntryRequest
// they came from.
type entrySeed struct {
	req    modulegraph.EntryRequest
	depIDs []ident.DependencyId
}

func (c *Compilation) runMakePhase(ctx context.Context) error {
	var entryDeps []modulegraph.Dependency
	seeds := make([]entrySeed, 0, len(c.opts.Entries))

	for _, req := range c.opts.Entries {
		seed := entrySeed{req: req}
		for _, request := range req.Import {
			id := c.counters.NextDependencyID()
			dep := modulegraph.NewEntryDependency(id, req.Name, request)
			entryDeps = append(entryDeps, dep)
			seed.depIDs = append(seed.depIDs, id)
		}
		seeds = append(seeds, seed)
	}
	c.entrySeeds = seeds

	builder := modulegraph.NewBuilder(c.ModuleGraph, modulegraph.BuilderOptions{
		Factories:   c.opts.Factories,
		Loader:      c.opts.Loader,
		FS:          c.opts.FS,
		Parsers:     c.opts.Parsers,
		Counters:    c.counters,
		Table:       c.table,
		Parallelism: c.opts.Config.Output.Parallelism,
		Logger:      c.logger,
		BeforeResolve: func(ctx context.Context, args modulegraph.ResolveHookArgs) (modulegraph.ResolveHookResult, bool, error) {
			result, ok, err := c.Hooks.BeforeResolve.Call(ctx, hook.ResolveArgs{Request: args.Request, Context: args.Context})
			return modulegraph.ResolveHookResult{Resource: result.Resource}, ok, err
		},
	})
	if err := builder.Build(ctx, entryDeps); err != nil {
		return err
	}
	for _, d := range builder.Diagnostics() {
		c.diags.Add(d)
	}

	for _, id := range c.ModuleGraph.SortedModuleIDs() {
		mod, ok := c.ModuleGraph.Module(id)
		if !ok {
			continue
		}
		if err := c.Hooks.Module.Call(ctx, &hook.ModuleArgs{Module: mod}); err != nil {
			return fmt.Errorf("module hook for %q: %w", id, err)
		}
	}
	return c.Hooks.FinishModules.Call(ctx, &hook.ModuleGraphArgs{Graph: c.ModuleGraph})
}

// entryModule resolves a built entry's primary module: the target of its
// first import-path dependency (spec.md §6 Open Question resolution: the
// first import determines the entry module identity the chunk graph roots
// on; later imports in the same entry are built into the module graph but
// land in the entry's chunk only if the first import's module reaches them).
func (c *Compilation) entryModule(seed entrySeed) (ident.ModuleIdentifier, error) {
	if len(seed.depIDs) == 0 {
		return ident.ModuleIdentifier{}, fmt.Errorf("entry %q has no import paths", seed.req.Name)
	}
	conn, ok := c.ModuleGraph.Connection(seed.depIDs[0])
	if !ok {
		return ident.ModuleIdentifier{}, fmt.Errorf("entry %q: primary import unresolved", seed.req.Name)
	}
	return conn.Target, nil
}

func (c *Compilation) runExportsInfoPhase(ctx context.Context) error {
	exportsinfo.FlagProvidedExports(c.ModuleGraph, c.Exports)

	byRuntime := map[string][]ident.ModuleIdentifier{}
	for _, seed := range c.entrySeeds {
		mod, err := c.entryModule(seed)
		if err != nil {
			return err
		}
		runtimeName := seed.req.Runtime
		if runtimeName == "" {
			runtimeName = seed.req.Name
		}
		byRuntime[runtimeName] = append(byRuntime[runtimeName], mod)
	}

	names := make([]string, 0, len(byRuntime))
	for name := range byRuntime {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		exportsinfo.FlagUsedExports(c.ModuleGraph, c.Exports, byRuntime[name], runtimespec.Single(name))
	}

	if _, _, err := c.Hooks.OptimizeDependencies.Call(ctx, hook.ModuleGraphArgs{Graph: c.ModuleGraph}); err != nil {
		return err
	}
	if _, _, err := c.Hooks.OptimizeModules.Call(ctx, hook.ModuleGraphArgs{Graph: c.ModuleGraph}); err != nil {
		return err
	}
	return c.Hooks.ModuleIds.Call(ctx, &hook.ModuleGraphArgs{Graph: c.ModuleGraph})
}

func (c *Compilation) runChunkGraphPhase(ctx context.Context) error {
	builder := chunkgraph.NewBuilder(c.ModuleGraph, c.counters, c.logger)

	entries := make([]chunkgraph.EntryPoint, 0, len(c.entrySeeds))
	for _, seed := range c.entrySeeds {
		mod, err := c.entryModule(seed)
		if err != nil {
			return err
		}
		runtimeName := seed.req.Runtime
		if runtimeName == "" {
			runtimeName = seed.req.Name
		}
		entries = append(entries, chunkgraph.EntryPoint{
			Name:        seed.req.Name,
			Module:      mod,
			RuntimeName: runtimeName,
			DependOn:    seed.req.DependOn,
		})
	}

	if err := builder.Build(entries); err != nil {
		return err
	}
	for _, d := range builder.Diagnostics() {
		c.diags.Add(d)
	}
	c.ChunkGraph = builder.Graph()
	c.chunkBuilder = builder

	if c.opts.Config.SplitChunks.Enabled && len(c.opts.CacheGroups) > 0 {
		chunkgraph.ApplySplitChunks(c.ModuleGraph, c.ChunkGraph, chunkgraph.SplitChunksOptions{CacheGroups: c.opts.CacheGroups})
	}

	if _, _, err := c.Hooks.OptimizeChunks.Call(ctx, hook.ChunkGraphArgs{Graph: c.ChunkGraph}); err != nil {
		return err
	}
	if err := c.Hooks.AfterOptimizeChunks.Call(ctx, &hook.ChunkGraphArgs{Graph: c.ChunkGraph}); err != nil {
		return err
	}
	return c.Hooks.ChunkIds.Call(ctx, &hook.ChunkGraphArgs{Graph: c.ChunkGraph})
}

func (c *Compilation) runCodegenPhase(ctx context.Context) error {
	c.CodeGen = codegen.NewCodeGenerationResults()
	cv := &view{c: c}

	for _, ukey := range c.ChunkGraph.SortedChunkUkeys() {
		chunk, ok := c.ChunkGraph.Chunk(ukey)
		if !ok {
			continue
		}
		for _, modID := range chunk.SortedModules() {
			mod, ok := c.ModuleGraph.Module(modID)
			if !ok {
				return fmt.Errorf("codegen: module %q missing from module graph", modID)
			}
			if _, err := c.CodeGen.GetOrGenerate(mod, chunk.Runtime, cv, c.opts.Templates, c.ModuleIDs, nil); err != nil {
				return fmt.Errorf("codegen: module %q: %w", modID, err)
			}
		}
	}
	return nil
}

func (c *Compilation) runRuntimeRequirementPhase(ctx context.Context) error {
	moduleReqs := runtimereq.ModuleRequirements{}
	for _, ukey := range c.ChunkGraph.SortedChunkUkeys() {
		chunk, ok := c.ChunkGraph.Chunk(ukey)
		if !ok {
			continue
		}
		for _, modID := range chunk.SortedModules() {
			result, ok := c.CodeGen.Get(modID, chunk.Runtime)
			if !ok {
				continue
			}
			req := result.Requirements
			out, err := c.Hooks.RuntimeRequirementInModule.Call(ctx, req)
			if err != nil {
				return err
			}
			moduleReqs[modID] = moduleReqs[modID].Union(out)
		}
	}

	chunkReqs := runtimereq.PropagateModulesToChunks(c.ChunkGraph, moduleReqs, nil)
	for ukey, req := range chunkReqs {
		out, err := c.Hooks.RuntimeRequirementInChunk.Call(ctx, req)
		if err != nil {
			return err
		}
		chunkReqs[ukey] = out
	}

	c.runtimeModules = map[ident.ChunkUkey][]runtimereq.RuntimeModule{}
	for _, name := range c.chunkBuilder.RuntimeNames() {
		runtimeChunk, ok := c.chunkBuilder.RuntimeChunkFor(name)
		if !ok {
			continue
		}
		root, ok := c.entryGroupForRuntime(name)
		if !ok {
			continue
		}
		result := c.opts.Resolver.PropagateTree(c.ChunkGraph, chunkReqs, name, runtimeChunk, root)
		tree, err := c.Hooks.RuntimeRequirementInTree.Call(ctx, result.Tree)
		if err != nil {
			return err
		}
		result.Tree = tree
		c.runtimeModules[runtimeChunk] = result.Modules
	}
	return nil
}

// entryGroupForRuntime returns any configured entry's chunk group sharing
// runtimeName, used as the BFS root for that runtime's tree-wide
// requirement lift (spec.md §4.6 step 3 picks any entry of the runtime
// since they all share the same runtime chunk and reach the same chunks).
func (c *Compilation) entryGroupForRuntime(runtimeName string) (ident.ChunkGroupUkey, bool) {
	for _, seed := range c.entrySeeds {
		name := seed.req.Runtime
		if name == "" {
			name = seed.req.Name
		}
		if name != runtimeName {
			continue
		}
		if group, ok := c.chunkBuilder.EntryGroupFor(seed.req.Name); ok {
			return group, true
		}
	}
	return 0, false
}

// buildHashToken derives the [hash] filename token from BuildID: the
// UUID's hex digits (dashes stripped) truncated to the configured length,
// so every asset from one build shares a single, otherwise-meaningless
// build-wide token distinct from any chunk's own content hash.
func (c *Compilation) buildHashToken() string {
	hex := strings.ReplaceAll(c.BuildID.String(), "-", "")
	length := c.opts.Config.Output.BuildHashLength
	if length > 0 && length < len(hex) {
		return hex[:length]
	}
	return hex
}

func (c *Compilation) runRenderPhase(ctx context.Context) error {
	buildHash := c.buildHashToken()
	results := map[ident.ModuleIdentifier]*codegen.GenerationResult{}
	for _, ukey := range c.ChunkGraph.SortedChunkUkeys() {
		chunk, ok := c.ChunkGraph.Chunk(ukey)
		if !ok {
			continue
		}
		for _, modID := range chunk.SortedModules() {
			if result, ok := c.CodeGen.Get(modID, chunk.Runtime); ok {
				results[modID] = result
			}
		}

		template := render.FilenameTemplate(c.opts.Config.Output.ChunkFilename)
		if chunk.IsRuntimeChunk {
			template = render.FilenameTemplate(c.opts.Config.Output.Filename)
		}

		rendered, err := render.RenderChunk(c.ChunkGraph, chunk, results, c.runtimeModules[ukey], render.RenderOptions{
			ModuleIDs:        c.ModuleIDs,
			ChunkIDs:         c.ChunkIDs,
			FilenameTemplate: template,
			BuildHash:        buildHash,
			HashLength:       c.opts.Config.Output.ContentHashLength,
		})
		if err != nil {
			return fmt.Errorf("render: chunk %s: %w", ukey, err)
		}
		for _, asset := range rendered.Assets {
			c.Assets[asset.Filename] = asset
		}
	}

	assetArgs := &hook.AssetsArgs{Assets: c.Assets}
	if err := c.Hooks.ProcessAssets.Call(ctx, assetArgs); err != nil {
		return err
	}
	if err := c.Hooks.AdditionalAssets.Call(ctx, assetArgs); err != nil {
		return err
	}
	return c.Hooks.AfterEmit.Call(ctx, assetArgs)
}
