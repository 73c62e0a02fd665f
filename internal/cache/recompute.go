package cache

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// RecomputeKeys computes a fresh CacheEntry for every module currently in
// mgraph, in parallel, bounded by parallelism workers (0 = runtime.NumCPU,
// matching modulegraph.Builder's own default). This is the per-build
// bookkeeping step spec.md §9 describes as "between builds: recompute keys
// in parallel" — it does not itself decide what to skip; call
// UnaffectedModulesCache.Decide per module against the result.
func RecomputeKeys(ctx context.Context, mgraph *modulegraph.Graph, cgraph *chunkgraph.Graph, parallelism int) (map[ident.ModuleIdentifier]CacheEntry, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	ids := mgraph.SortedModuleIDs()
	results := make(map[ident.ModuleIdentifier]CacheEntry, len(ids))
	var mu sync.Mutex

	grp, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(parallelism))

	for _, id := range ids {
		id := id
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		grp.Go(func() error {
			defer sem.Release(1)

			mod, ok := mgraph.Module(id)
			if !ok {
				return nil
			}
			entry := CacheEntry{
				ModuleGraphKey: ComputeModuleGraphKey(mod),
				ChunkGraphKey:  ComputeChunkGraphKey(id, mod, mgraph, cgraph),
			}

			mu.Lock()
			results[id] = entry
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
