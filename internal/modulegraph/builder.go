// Package modulegraph implements the make phase: the Module Graph Builder
// that resolves, loads, transforms and parses modules starting from a set
// of entry dependencies until a fixed point is reached (spec.md §4.1).
package modulegraph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jmylchreest/wbcore/internal/diagnostic"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/observability"
)

// BuilderOptions configures a Builder's worker pool and collaborators.
type BuilderOptions struct {
	Factories    *FactoryRegistry
	Loader       LoaderRunner
	FS           FileSystem
	Parsers      map[ModuleType]ParserAndGenerator
	Counters     *ident.Counters
	Table        *ident.Table
	Parallelism  int // 0 = runtime.NumCPU()
	Logger       *slog.Logger

	// BeforeResolve, if set, is consulted once per dependency before its
	// factory runs (spec.md §4.8 "beforeResolve"). A bail (ok=true) with
	// an empty ResolveHookResult.Resource skips the dependency entirely:
	// no factory call, no module, just the bare Dependency recorded so
	// downstream inspection can still see it existed.
	BeforeResolve func(ctx context.Context, args ResolveHookArgs) (ResolveHookResult, bool, error)
}

// Builder is the concurrent traversal engine for the make phase (spec.md
// §4.1, §5). It is grounded on the teacher's stage/orchestrator idiom
// (phase-boundary logging via TimedOperation) but its scheduling model is
// its own: a work-stealing pool over a dynamically growing queue, bounded
// by a golang.org/x/sync/semaphore.Weighted, with termination detected via
// an atomic pending-task counter rather than the teacher's fixed stage
// list (the teacher never needed dynamic fan-out).
type Builder struct {
	opts  BuilderOptions
	graph *Graph
	diags diagnostic.Bag
	mu    sync.Mutex // guards diags; Bag itself isn't concurrency-safe
}

// NewBuilder creates a Builder that will populate graph.
func NewBuilder(graph *Graph, opts BuilderOptions) *Builder {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Builder{opts: opts, graph: graph}
}

// Diagnostics returns every diagnostic recorded during Build.
func (b *Builder) Diagnostics() []*diagnostic.Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.diags.All()
}

// workItem is one queued dependency awaiting factorization/build, along
// with the context (directory, layer) it was discovered in.
type workItem struct {
	dep     Dependency
	context string
	layer   string
}

// Build runs the make-phase algorithm to a fixed point starting from
// entryDeps (spec.md §4.1 "Algorithm"). It returns an error only for
// conditions the caller cannot recover from (a cancelled context); module-
// level failures are recorded as diagnostics and otherwise swallowed, per
// §4.1 "Error semantics".
func (b *Builder) Build(ctx context.Context, entryDeps []Dependency) error {
	sem := semaphore.NewWeighted(int64(b.opts.Parallelism))
	grp, gctx := errgroup.WithContext(ctx)

	var pending atomic.Int64
	queue := make(chan workItem, 256)
	var seenMu sync.Mutex
	seenIdentities := make(map[ident.ModuleIdentifier]bool)

	var enqueue func(items ...workItem)
	enqueue = func(items ...workItem) {
		if len(items) == 0 {
			return
		}
		pending.Add(int64(len(items)))
		go func() {
			for _, it := range items {
				queue <- it
			}
		}()
	}

	b.opts.Logger.InfoContext(ctx, "make phase starting",
		slog.Int("entry_count", len(entryDeps)),
		slog.Int("parallelism", b.opts.Parallelism),
	)

	for _, d := range entryDeps {
		enqueue(workItem{dep: d, context: "."})
	}
	if pending.Load() == 0 {
		close(queue)
	}

	for i := 0; i < b.opts.Parallelism; i++ {
		grp.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case item, ok := <-queue:
					if !ok {
						return nil
					}
					if err := sem.Acquire(gctx, 1); err != nil {
						return err
					}
					discovered := b.process(gctx, item, &seenMu, seenIdentities)
					sem.Release(1)

					// Enqueue anything this item discovered BEFORE
					// retiring it: pending only ever increases ahead of
					// a decrement, so no interleaving of two workers'
					// retire/discover pairs can observe a premature
					// zero and close the queue while new work is still
					// being handed off.
					if len(discovered) > 0 {
						enqueue(discovered...)
					}
					if pending.Add(-1) == 0 {
						close(queue)
					}
				}
			}
		})
	}

	err := grp.Wait()
	b.opts.Logger.InfoContext(ctx, "make phase complete",
		slog.Int("module_count", b.graph.ModuleCount()),
	)
	return err
}

// process factorizes, dedupes, and (if needed) builds a single dependency,
// returning newly discovered work items for its resolved module's own
// dependencies.
func (b *Builder) process(ctx context.Context, item workItem, seenMu *sync.Mutex, seen map[ident.ModuleIdentifier]bool) []workItem {
	if b.opts.BeforeResolve != nil {
		res, bailed, err := b.opts.BeforeResolve(ctx, ResolveHookArgs{Request: item.dep.Request(), Context: item.context})
		if err != nil {
			b.errf("BEFORE_RESOLVE_FAILED", "beforeResolve for %q: %v", item.dep.Request(), err)
			return nil
		}
		if bailed && res.Resource == "" {
			b.graph.AddDependency(item.dep)
			return nil
		}
	}

	factory, err := b.opts.Factories.GetForDependency(item.dep)
	if err != nil {
		b.warn("MODULE_FACTORY_NOT_FOUND", "%v", err)
		return nil
	}

	result, err := factory.Factorize(ctx, FactorizeRequest{Dependency: item.dep, Context: item.context, Layer: item.layer})
	if err != nil {
		if isOptional(item.dep) {
			b.warn("MODULE_UNRESOLVED_OPTIONAL", "unresolved optional dependency %q: %v", item.dep.Request(), err)
			placeholder := NewRawModule(placeholderIdentity(item.dep), ModuleTypeJSAuto, []byte("/* (ignored) */"), "(ignored)")
			b.graph.AddModule(placeholder)
			b.graph.AddDependency(item.dep)
			b.graph.AddConnection(&Connection{Dependency: item.dep.ID(), Target: placeholder.Identifier()})
			return nil
		}
		b.errf("MODULE_NOT_FOUND", "cannot resolve %q: %v", item.dep.Request(), err)
		return nil
	}

	mod := result.Module
	id := mod.Identifier()

	seenMu.Lock()
	alreadyBuilt := seen[id]
	if !alreadyBuilt {
		seen[id] = true
	}
	seenMu.Unlock()

	b.graph.AddDependency(item.dep)
	b.graph.AddConnection(&Connection{Dependency: item.dep.ID(), Target: id})

	if alreadyBuilt {
		return nil
	}

	if existing, ok := b.graph.Module(id); ok && !result.NeedsBuild {
		// Cache hit: build inputs unchanged (spec.md §4.1b).
		b.graph.AddModule(existing)
		return nil
	}

	moduleCtx := observability.ContextWithModuleID(ctx, id.String())
	built, discovered, err := b.buildModule(moduleCtx, mod, item.context, item.layer)
	if err != nil {
		b.errf("MODULE_BUILD_FAILED", "building %q: %v", id.String(), err)
		return nil
	}
	observability.WithModuleID(b.opts.Logger, id.String()).DebugContext(moduleCtx, "module built",
		slog.Int("dependency_count", len(built.Dependencies())),
	)
	b.graph.AddModule(built)
	return discovered
}

// buildModule runs the loader pipeline and parser for a NormalModule, or
// passes ContextModule/RawModule/ExternalModule through unchanged (they
// have no loader chain to run).
func (b *Builder) buildModule(ctx context.Context, mod Module, parentCtx, layer string) (Module, []workItem, error) {
	nm, isNormal := mod.AsNormalModule()
	if !isNormal {
		if cm, ok := mod.AsContextModule(); ok {
			return b.buildContextModule(ctx, cm)
		}
		// Raw/External modules carry no further dependencies to discover.
		return mod, nil, nil
	}

	source, emitted, err := b.opts.Loader.Run(ctx, nm.Resource, nm.LoaderChain, b.opts.FS)
	if err != nil {
		nm.buildInfo.Errored = true
		return nm, nil, fmt.Errorf("loader chain: %w", err)
	}
	nm.source = source
	_ = emitted // dropped: loader-emitted files are not registered as assets

	parser, ok := b.opts.Parsers[nm.Type()]
	if !ok {
		return nm, nil, fmt.Errorf("no parser registered for module type %q", nm.Type())
	}

	parsed, err := parser.Parse(ctx, source, nm.Resource)
	if err != nil {
		// Parse failure: keep the module with empty deps, error diagnostic,
		// build continues (spec.md §4.1 "Error semantics").
		b.errf("MODULE_PARSE_FAILED", "parsing %q: %v", nm.Identifier().String(), err)
		return nm, nil, nil
	}

	discovered := make([]workItem, 0, len(parsed.Dependencies))
	for _, dep := range parsed.Dependencies {
		nm.deps = append(nm.deps, dep.ID())
		discovered = append(discovered, workItem{dep: dep, context: nm.Context(), layer: layer})
	}
	blockDeps := make(map[ident.DependencyId]Dependency, len(parsed.BlockDependencies))
	for _, d := range parsed.BlockDependencies {
		blockDeps[d.ID()] = d
	}
	for _, blk := range parsed.Blocks {
		nm.blocks = append(nm.blocks, blk.Id)
		b.graph.AddBlock(blk)
		for _, depID := range blk.Deps {
			dep, ok := blockDeps[depID]
			if !ok {
				b.warn("BLOCK_DEPENDENCY_MISSING", "block %s references dependency %v with no matching ParseResult.BlockDependencies entry", blk.Id.String(), depID)
				continue
			}
			discovered = append(discovered, workItem{context: nm.Context(), layer: layer, dep: dep})
		}
	}
	for _, dep := range parsed.PresentationalDeps {
		// Presentational deps never resolve to another module (spec.md
		// §4.1c), so they're registered directly rather than queued as a
		// workItem; codegen still looks them up from the graph by id
		// (internal/codegen.Generate), so they need to be findable there.
		b.graph.AddDependency(dep)
		nm.presDeps = append(nm.presDeps, dep.ID())
	}
	if parsed.ProvidedExports != nil {
		nm.SetProvidedExports(parsed.ProvidedExports, parsed.ReexportFrom)
	}
	return nm, discovered, nil
}

// buildContextModule enumerates a wildcard require.context directory via
// the FileSystem capability and synthesizes one ContextElementDependency
// per matching entry (spec.md §4.1a; original_source/context_module_factory.rs,
// see internal/modulegraph/context.go for the directory-walk + regex
// filter itself).
func (b *Builder) buildContextModule(ctx context.Context, cm *ContextModule) (Module, []workItem, error) {
	deps, err := EnumerateContextElements(ctx, b.opts.FS, b.opts.Counters, cm)
	if err != nil {
		return cm, nil, err
	}
	discovered := make([]workItem, 0, len(deps))
	for _, dep := range deps {
		cm.deps = append(cm.deps, dep.ID())
		discovered = append(discovered, workItem{dep: dep, context: cm.Directory})
	}
	return cm, discovered, nil
}

func (b *Builder) warn(code, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags.Warnf(code, format, args...)
}

func (b *Builder) errf(code, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags.Errorf(code, format, args...)
}

// isOptional reports whether a dependency was marked optional (try/require
// or an explicit optional flag) via its concrete type. The core's
// Dependency interface has no Optional() method of its own — optionality
// is a property of the concrete dependency variant a ParserAndGenerator
// constructs — so this probes the common embeddable marker interface.
func isOptional(dep Dependency) bool {
	type optionalMarker interface{ Optional() bool }
	if om, ok := dep.(optionalMarker); ok {
		return om.Optional()
	}
	return false
}

func placeholderIdentity(dep Dependency) ident.ModuleIdentifier {
	// Placeholders are never deduplicated against real modules; a fresh,
	// unintered identity per call is deliberate (interned in a throwaway
	// Table, not the compilation's shared one — ignored placeholders don't
	// need shared interning since nothing outside this one connection ever
	// looks them up by string).
	s := "(ignored)!" + dep.Request()
	return ident.NewTable().Intern(s)
}
