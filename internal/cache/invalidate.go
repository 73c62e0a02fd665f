package cache

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// Affect classifies whether a dependency type's connection propagates
// invalidation from a target module back to the module that imports it
// (spec.md §9 "couldAffectReferencingModule").
type Affect int

const (
	// AffectNo means a change to the target never requires rebuilding
	// the referencing module: the dependency only contributes a runtime
	// reference (e.g. a lazily-resolved URL), never inlined content.
	AffectNo Affect = iota
	// AffectYes means a change to the target requires rebuilding the
	// referencing module itself, but does not need to propagate further
	// up that module's own referrers.
	AffectYes
	// AffectTransitive means a change propagates both to the referencing
	// module and, from there, continues walking up its own referrers —
	// used for dependency types whose code generation inlines the
	// target's exports directly into the referencing module's body
	// (module concatenation candidates), so a change several levels deep
	// can ripple all the way to an entry.
	AffectTransitive
)

// couldAffectReferencingModule maps each well-known DependencyType to its
// Affect classification. A type not listed defaults to AffectYes: the
// conservative choice for a plugin-registered dependency type is to
// rebuild its referrer rather than silently skip it.
var couldAffectReferencingModule = map[modulegraph.DependencyType]Affect{
	modulegraph.DependencyTypeESMImport:          AffectTransitive,
	modulegraph.DependencyTypeESMImportSpecifier: AffectTransitive,
	modulegraph.DependencyTypeESMExport:          AffectTransitive,
	modulegraph.DependencyTypeESMExportStar:      AffectTransitive,
	modulegraph.DependencyTypeCJSRequire:         AffectYes,
	modulegraph.DependencyTypeCJSFullRequire:     AffectYes,
	modulegraph.DependencyTypeAMDRequire:         AffectYes,
	modulegraph.DependencyTypeContextElement:     AffectYes,
	modulegraph.DependencyTypeRequireContext:     AffectYes,
	modulegraph.DependencyTypeEntry:              AffectYes,
	modulegraph.DependencyTypeESMDynamicImport:   AffectNo,
	modulegraph.DependencyTypeWorker:             AffectNo,
	modulegraph.DependencyTypeRequireResolve:     AffectNo,
	modulegraph.DependencyTypeURL:                AffectNo,
	modulegraph.DependencyTypeWASMImport:         AffectYes,
}

// CouldAffectReferencingModule returns the Affect classification for a
// DependencyType, defaulting to AffectYes for anything not in the
// well-known table.
func CouldAffectReferencingModule(t modulegraph.DependencyType) Affect {
	if a, ok := couldAffectReferencingModule[t]; ok {
		return a
	}
	return AffectYes
}

// Invalidate walks backwards from changed — the modules a rebuild already
// knows differ — through graph's connections, returning every module
// identity that must be treated as changed as a result (changed itself
// plus everything it transitively affects). A module reached through an
// AffectNo connection is not added; one reached through AffectYes is added
// but not walked further; one reached through AffectTransitive is added
// and its own referrers are walked in turn (spec.md §9).
func Invalidate(graph *modulegraph.Graph, changed []ident.ModuleIdentifier) map[ident.ModuleIdentifier]bool {
	referrers := buildReferrerIndex(graph)

	affected := make(map[ident.ModuleIdentifier]bool, len(changed))
	walked := make(map[ident.ModuleIdentifier]bool, len(changed))
	var queue []ident.ModuleIdentifier
	for _, id := range changed {
		if !walked[id] {
			affected[id] = true
			walked[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range referrers[id] {
			affect := CouldAffectReferencingModule(edge.depType)
			if affect == AffectNo {
				continue
			}
			affected[edge.origin] = true
			if affect == AffectTransitive && !walked[edge.origin] {
				walked[edge.origin] = true
				queue = append(queue, edge.origin)
			}
		}
	}
	return affected
}

type referrerEdge struct {
	origin  ident.ModuleIdentifier
	depType modulegraph.DependencyType
}

// buildReferrerIndex inverts every module's outgoing connections into a
// target-to-origins index, since modulegraph.Graph only exposes the
// forward direction.
func buildReferrerIndex(graph *modulegraph.Graph) map[ident.ModuleIdentifier][]referrerEdge {
	index := map[ident.ModuleIdentifier][]referrerEdge{}
	for _, id := range graph.SortedModuleIDs() {
		mod, ok := graph.Module(id)
		if !ok {
			continue
		}
		for _, conn := range graph.OutgoingConnections(mod) {
			depType := modulegraph.DependencyTypeEntry
			if dep, ok := graph.Dependency(conn.Dependency); ok {
				depType = dep.Type()
			}
			index[conn.Target] = append(index[conn.Target], referrerEdge{origin: conn.Origin, depType: depType})
		}
	}
	return index
}
