package exportsinfo

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// Registry owns every module's ExportsInfo for one compilation, analogous
// to Graph owning Module/Connection/Block (spec.md §4.3 data model is
// per-module but looked up by identifier throughout codegen and chunk
// graph construction).
type Registry struct {
	infos map[ident.ModuleIdentifier]*ExportsInfo
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{infos: make(map[ident.ModuleIdentifier]*ExportsInfo)}
}

// For returns the ExportsInfo for a module, creating an empty one on first
// access.
func (r *Registry) For(module ident.ModuleIdentifier) *ExportsInfo {
	if info, ok := r.infos[module]; ok {
		return info
	}
	info := New(module)
	r.infos[module] = info
	return info
}

// Get returns the ExportsInfo for a module if one has been created.
func (r *Registry) Get(module ident.ModuleIdentifier) (*ExportsInfo, bool) {
	info, ok := r.infos[module]
	return info, ok
}

// FlagProvidedExports runs the "FlagDependencyExportsPlugin" pass (spec.md
// §4.3): for every module in the graph, record which export names it
// statically provides. A module whose parser could not determine its
// exports statically (ProvidedExports unknown — non-ESM, dynamic `exports`
// object, or any other case the parser could not resolve) is marked
// Unknown rather than NotProvided, since the engine must never assume an
// export is absent when it simply could not be proven present.
func FlagProvidedExports(graph *modulegraph.Graph, registry *Registry) {
	for _, id := range graph.SortedModuleIDs() {
		mod, ok := graph.Module(id)
		if !ok {
			continue
		}
		info := registry.For(id)
		names, known := mod.ProvidedExports()
		if !known {
			info.OtherExportsInfo.Provided = ProvidedUnknown
			continue
		}
		info.OtherExportsInfo.Provided = NotProvided
		for _, name := range names {
			exp := info.ExportInfoFor(name)
			exp.Provided = Provided
		}
	}

	// Resolve `export * from "x"` wildcard re-exports: union the target
	// module's provided names into the re-exporting module. Iterated to
	// a fixed point so a chain of re-exports (a re-exports b re-exports
	// c) converges regardless of discovery order; a visited set per
	// starting module guards against cycles (spec.md §4.3 "Circular
	// re-exports: detect via visited-set").
	for changed := true; changed; {
		changed = false
		for _, id := range graph.SortedModuleIDs() {
			mod, ok := graph.Module(id)
			if !ok {
				continue
			}
			reexports := mod.ReexportFrom()
			if len(reexports) == 0 {
				continue
			}
			info := registry.For(id)
			for _, depID := range reexports {
				conn, ok := graph.Connection(depID)
				if !ok {
					continue
				}
				if resolveReexport(graph, registry, info, conn.Target, map[ident.ModuleIdentifier]bool{id: true}) {
					changed = true
				}
			}
		}
	}
}

// resolveReexport unions target's provided names into info, following
// target's own wildcard re-exports transitively. Returns true if it added
// any new export name. visited carries the chain of modules already
// walked so a re-export cycle returns without recursing forever, leaving
// names contributed by modules before the cycle intact (spec.md §4.3
// "leave usage at the safe upper bound" generalized to the provided axis:
// an unresolvable cycle is treated as Unknown, never as NotProvided).
func resolveReexport(graph *modulegraph.Graph, registry *Registry, info *ExportsInfo, target ident.ModuleIdentifier, visited map[ident.ModuleIdentifier]bool) bool {
	if visited[target] {
		info.OtherExportsInfo.Provided = ProvidedUnknown
		return false
	}
	visited[target] = true

	targetMod, ok := graph.Module(target)
	if !ok {
		return false
	}
	changed := false

	names, known := targetMod.ProvidedExports()
	if !known {
		if info.OtherExportsInfo.Provided != Provided {
			info.OtherExportsInfo.Provided = ProvidedUnknown
		}
	}
	for _, name := range names {
		exp := info.ExportInfoFor(name)
		if exp.Provided != Provided {
			exp.Provided = Provided
			changed = true
		}
	}

	for _, depID := range targetMod.ReexportFrom() {
		conn, ok := graph.Connection(depID)
		if !ok {
			continue
		}
		if resolveReexport(graph, registry, info, conn.Target, visited) {
			changed = true
		}
	}
	return changed
}
