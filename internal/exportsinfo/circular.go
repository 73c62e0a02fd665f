package exportsinfo

import (
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// ReexportResult is the outcome of following a module's wildcard re-export
// chain to its root (spec.md §4.3 "Circular re-exports: detect via
// visited-set; return a sentinel Circular result and leave usage at the
// safe upper bound").
type ReexportResult int

const (
	ReexportResolved ReexportResult = iota
	// Circular means the chain revisited a module already on the current
	// walk before exhausting every branch.
	Circular
)

// FollowReexportChain walks module's ReexportFrom edges to find the
// ultimate non-re-exporting module(s) it resolves to, detecting cycles via
// a visited set rather than a fixed recursion-depth bound (an arbitrarily
// long acyclic re-export chain must still resolve). On Circular, the
// returned roots are whatever was already resolved before the cycle was
// detected; provided.go and usage.go already treat that partial result as
// the conservative upper bound (Unknown / Used) rather than discarding it.
func FollowReexportChain(graph *modulegraph.Graph, module ident.ModuleIdentifier) ([]ident.ModuleIdentifier, ReexportResult) {
	visited := map[ident.ModuleIdentifier]bool{module: true}
	var roots []ident.ModuleIdentifier
	result := ReexportResolved

	var walk func(ident.ModuleIdentifier)
	walk = func(m ident.ModuleIdentifier) {
		mod, ok := graph.Module(m)
		if !ok {
			return
		}
		reexports := mod.ReexportFrom()
		if len(reexports) == 0 {
			roots = append(roots, m)
			return
		}
		for _, depID := range reexports {
			conn, ok := graph.Connection(depID)
			if !ok {
				continue
			}
			if visited[conn.Target] {
				result = Circular
				continue
			}
			visited[conn.Target] = true
			walk(conn.Target)
		}
	}
	walk(module)
	return roots, result
}
