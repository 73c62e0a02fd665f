package exportsinfo

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

// ExportConsumer is implemented by Dependency variants that know which
// named exports of their target they read (e.g. `import {x, y} from "m"`).
// Dependencies that don't implement it (side-effect-only imports, CommonJS
// `require`, dynamic member access) are treated as consuming every export
// at Unknown strength, the conservative default (spec.md §4.3 "Used"
// axis).
type ExportConsumer interface {
	// ConsumedExports returns the specific export names read and the
	// strength at which they're read. all reports whether the
	// dependency may read any export by name at runtime (e.g. `import *
	// as ns from "m"; ns[computed]`), in which case every export —
	// including ones not yet known — must be marked used.
	ConsumedExports() (names []string, state UsageState, all bool)
}

// SideEffectOnly is implemented by dependencies that only trigger module
// evaluation and read no export (`import "m";`).
type SideEffectOnly interface {
	IsSideEffectOnly() bool
}

// FlagUsedExports runs the "FlagDependencyUsagePlugin" pass (spec.md
// §4.3): starting from the given entry modules, walks every connection
// active in runtime and joins usage into the target's ExportsInfo. It is a
// worklist fixed-point computation rather than a single DFS/BFS pass
// because usage only ever strengthens (the lattice is monotonic — spec.md
// §8 property #4), so re-enqueuing a module whose incoming usage just grew
// is always safe and always terminates (there are finitely many (module,
// export) pairs and finitely many lattice steps each can take).
func FlagUsedExports(graph *modulegraph.Graph, registry *Registry, entries []ident.ModuleIdentifier, runtime runtimespec.Spec) {
	runtimeKey := runtime.Key()
	queue := make([]ident.ModuleIdentifier, 0, len(entries))
	queued := make(map[ident.ModuleIdentifier]bool, len(entries))
	for _, e := range entries {
		registry.For(e).SideEffectsOnlyInfo.SetUsed(runtimeKey, Used)
		queue = append(queue, e)
		queued[e] = true
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		queued[id] = false

		mod, ok := graph.Module(id)
		if !ok {
			continue
		}

		for _, conn := range graph.OutgoingConnections(mod) {
			if !conn.ActiveInRuntime(runtimeKey) {
				continue
			}
			dep, _ := graph.Dependency(conn.Dependency)
			targetInfo := registry.For(conn.Target)
			changed := applyUsage(targetInfo, dep, runtimeKey)
			if changed {
				changed = propagateThroughReexports(graph, registry, conn.Target, runtimeKey, map[ident.ModuleIdentifier]bool{conn.Target: true}) || changed
			}
			if changed && !queued[conn.Target] {
				queue = append(queue, conn.Target)
				queued[conn.Target] = true
			}
		}
	}
}

// applyUsage marks targetInfo according to dep's consumption of it,
// returning true if any export's usage strengthened.
func applyUsage(targetInfo *ExportsInfo, dep modulegraph.Dependency, runtimeKey string) bool {
	if dep == nil {
		return targetInfo.markUnknownAll(runtimeKey)
	}
	if soDep, ok := dep.(SideEffectOnly); ok && soDep.IsSideEffectOnly() {
		return targetInfo.markSideEffectUsed(runtimeKey)
	}
	consumer, ok := dep.(ExportConsumer)
	if !ok {
		return targetInfo.markUnknownAll(runtimeKey)
	}
	names, state, all := consumer.ConsumedExports()
	if all {
		return targetInfo.markUnknownAll(runtimeKey)
	}
	changed := false
	for _, name := range names {
		exp := targetInfo.ExportInfoFor(name)
		before := exp.UsageFor(runtimeKey)
		exp.SetUsed(runtimeKey, state)
		if exp.UsageFor(runtimeKey) != before {
			changed = true
		}
	}
	return changed
}

func (ei *ExportsInfo) markUnknownAll(runtimeKey string) bool {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	before := ei.OtherExportsInfo.UsageFor(runtimeKey)
	ei.OtherExportsInfo.SetUsed(runtimeKey, Unknown)
	changed := ei.OtherExportsInfo.UsageFor(runtimeKey) != before
	for _, info := range ei.Named {
		b := info.UsageFor(runtimeKey)
		info.SetUsed(runtimeKey, Unknown)
		if info.UsageFor(runtimeKey) != b {
			changed = true
		}
	}
	return changed
}

func (ei *ExportsInfo) markSideEffectUsed(runtimeKey string) bool {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	before := ei.SideEffectsOnlyInfo.UsageFor(runtimeKey)
	ei.SideEffectsOnlyInfo.SetUsed(runtimeKey, Used)
	return ei.SideEffectsOnlyInfo.UsageFor(runtimeKey) != before
}

// propagateThroughReexports joins target's current usage into whatever
// target itself wildcard re-exports from, per spec.md §4.3 "Propagating
// through re-exports: the target's usage is the join of consumer usage
// mapped through the re-export mapping." visited guards re-export cycles
// exactly as provided.go's resolveReexport does.
func propagateThroughReexports(graph *modulegraph.Graph, registry *Registry, module ident.ModuleIdentifier, runtimeKey string, visited map[ident.ModuleIdentifier]bool) bool {
	mod, ok := graph.Module(module)
	if !ok {
		return false
	}
	changed := false
	for _, depID := range mod.ReexportFrom() {
		conn, ok := graph.Connection(depID)
		if !ok || visited[conn.Target] {
			continue
		}
		visited[conn.Target] = true
		targetInfo := registry.For(conn.Target)
		if targetInfo.markUnknownAll(runtimeKey) {
			changed = true
		}
		if propagateThroughReexports(graph, registry, conn.Target, runtimeKey, visited) {
			changed = true
		}
	}
	return changed
}
