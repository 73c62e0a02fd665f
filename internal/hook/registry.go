package hook

import (
	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/render"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
)

// ResolveArgs is the argument to beforeResolve/afterResolve/beforeLoaders
// (spec.md §4.8).
type ResolveArgs struct {
	Request string
	Context string
	Loaders []string
}

// ResolveResult is what a resolver plugin produces when it bails out of
// the default resolution algorithm.
type ResolveResult struct {
	Resource string
}

// ModuleArgs is the argument to the module (after build) hook.
type ModuleArgs struct {
	Module modulegraph.Module
}

// ModuleGraphArgs is the argument to whole-module-graph hooks
// (finishModules, optimizeDependencies, optimizeModules, moduleIds).
type ModuleGraphArgs struct {
	Graph *modulegraph.Graph
}

// ChunkGraphArgs is the argument to whole-chunk-graph hooks
// (optimizeChunks, afterOptimizeChunks, chunkIds).
type ChunkGraphArgs struct {
	Graph *chunkgraph.Graph
}

// RuntimeRequirementScope identifies which of the three runtime
// requirement lift stages (spec.md §4.6) a
// runtimeRequirementInModule/Chunk/Tree tap is being run for.
type RuntimeRequirementScope struct {
	Module ident.ModuleIdentifier // set only for the module-level hook
	Chunk  ident.ChunkUkey        // set for the chunk- and tree-level hooks
}

// AssetsArgs is the argument to processAssets/additionalAssets/afterEmit.
type AssetsArgs struct {
	Assets map[string]render.Asset
}

// processAssets tap stages, coarse-grained and in ascending run order; a
// plugin picks the stage closest to what it needs to happen before/after.
const (
	ProcessAssetsStageAdditional     = 100
	ProcessAssetsStagePreProcess     = 200
	ProcessAssetsStageOptimizeInline = 300
	ProcessAssetsStageSummarize      = 1000
	ProcessAssetsStageOptimizeHash   = 2500
	ProcessAssetsStageReport         = 5000
)

// HookRegistry holds every named extension point spec.md §4.8 enumerates
// as typed fields, so plugins get compile-time checked tap registration
// instead of a stringly-keyed hook lookup. One HookRegistry belongs to
// exactly one Compilation; there is no global/process-wide registry
// (spec.md §9).
type HookRegistry struct {
	BeforeResolve *BailHook[ResolveArgs, ResolveResult]
	AfterResolve  *BailHook[ResolveArgs, ResolveResult]
	BeforeLoaders *SeriesHook[ResolveArgs]

	Module         *SeriesHook[ModuleArgs]
	FinishModules  *SeriesHook[ModuleGraphArgs]

	OptimizeDependencies *BailHook[ModuleGraphArgs, bool]
	OptimizeModules      *BailHook[ModuleGraphArgs, bool]
	ModuleIds            *SeriesHook[ModuleGraphArgs]

	OptimizeChunks      *BailHook[ChunkGraphArgs, bool]
	AfterOptimizeChunks *SeriesHook[ChunkGraphArgs]
	ChunkIds            *SeriesHook[ChunkGraphArgs]

	RuntimeRequirementInModule *WaterfallHook[runtimereq.Requirements]
	RuntimeRequirementInChunk  *WaterfallHook[runtimereq.Requirements]
	RuntimeRequirementInTree   *WaterfallHook[runtimereq.Requirements]

	ProcessAssets    *SeriesHook[AssetsArgs]
	AdditionalAssets *SeriesHook[AssetsArgs]
	AfterEmit        *SeriesHook[AssetsArgs]
}

// NewHookRegistry returns a fresh HookRegistry with every named hook
// initialized empty.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		BeforeResolve: NewBailHook[ResolveArgs, ResolveResult](),
		AfterResolve:  NewBailHook[ResolveArgs, ResolveResult](),
		BeforeLoaders: NewSeriesHook[ResolveArgs](),

		Module:        NewSeriesHook[ModuleArgs](),
		FinishModules: NewSeriesHook[ModuleGraphArgs](),

		OptimizeDependencies: NewBailHook[ModuleGraphArgs, bool](),
		OptimizeModules:      NewBailHook[ModuleGraphArgs, bool](),
		ModuleIds:            NewSeriesHook[ModuleGraphArgs](),

		OptimizeChunks:      NewBailHook[ChunkGraphArgs, bool](),
		AfterOptimizeChunks: NewSeriesHook[ChunkGraphArgs](),
		ChunkIds:            NewSeriesHook[ChunkGraphArgs](),

		RuntimeRequirementInModule: NewWaterfallHook[runtimereq.Requirements](),
		RuntimeRequirementInChunk:  NewWaterfallHook[runtimereq.Requirements](),
		RuntimeRequirementInTree:   NewWaterfallHook[runtimereq.Requirements](),

		ProcessAssets:    NewSeriesHook[AssetsArgs](),
		AdditionalAssets: NewSeriesHook[AssetsArgs](),
		AfterEmit:        NewSeriesHook[AssetsArgs](),
	}
}
