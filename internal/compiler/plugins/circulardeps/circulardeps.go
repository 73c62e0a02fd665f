// Package circulardeps is an optional diagnostic plugin: it walks the
// module graph once finishModules fires and emits a warning diagnostic
// for each import cycle it finds. It taps the hook system exactly like
// any external plugin would (internal/hook, not internal/compilation),
// grounded on rspack_plugin_circular_dependencies's approach of reporting
// cycles rather than rejecting them outright.
package circulardeps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/wbcore/internal/diagnostic"
	"github.com/jmylchreest/wbcore/internal/hook"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// Plugin detects cycles in the resolved module graph. FailOnCycle, if
// set, escalates every detected cycle to an error diagnostic instead of a
// warning, the way rspack's equivalent option works.
type Plugin struct {
	FailOnCycle bool
}

// New returns a Plugin that reports cycles as warnings.
func New() *Plugin {
	return &Plugin{}
}

// Apply taps FinishModules, the point at which the module graph is
// complete but chunking has not started yet.
func (p *Plugin) Apply(ctx *hook.PluginContext) {
	ctx.Hooks.FinishModules.Tap(0, "circulardeps", func(_ context.Context, args *hook.ModuleGraphArgs) error {
		cycles := findCycles(args.Graph)
		severity := diagnostic.SeverityWarning
		if p.FailOnCycle {
			severity = diagnostic.SeverityError
		}
		for _, cycle := range cycles {
			ctx.Diagnostics.Add(diagnostic.New(severity, "circular-dependency", describeCycle(cycle)))
			if ctx.Logger != nil {
				ctx.Logger.Warn("circular dependency detected", "cycle", describeCycle(cycle))
			}
		}
		return nil
	})
}

// findCycles returns every simple cycle reachable from the graph's
// modules, each expressed as the ordered chain of module identifiers that
// closes on itself. Modules are visited in SortedModuleIDs order so two
// runs over the same graph report cycles in the same order.
func findCycles(g *modulegraph.Graph) [][]ident.ModuleIdentifier {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[ident.ModuleIdentifier]int)
	var stack []ident.ModuleIdentifier
	var cycles [][]ident.ModuleIdentifier
	seen := make(map[string]bool)

	var visit func(id ident.ModuleIdentifier)
	visit = func(id ident.ModuleIdentifier) {
		state[id] = onStack
		stack = append(stack, id)

		if m, ok := g.Module(id); ok {
			for _, conn := range sortedOutgoing(g, m) {
				target := conn.Target
				switch state[target] {
				case unvisited:
					visit(target)
				case onStack:
					if cycle := extractCycle(stack, target); len(cycle) > 0 {
						key := cycleKey(cycle)
						if !seen[key] {
							seen[key] = true
							cycles = append(cycles, cycle)
						}
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range g.SortedModuleIDs() {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}

// sortedOutgoing returns m's outgoing connections ordered by target
// identifier, so cycle discovery order does not depend on dependency
// registration order within a single module.
func sortedOutgoing(g *modulegraph.Graph, m modulegraph.Module) []*modulegraph.Connection {
	conns := g.OutgoingConnections(m)
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].Target.String() < conns[j].Target.String()
	})
	return conns
}

// extractCycle returns the suffix of stack starting at target, the
// closed loop that running into an on-stack module during a DFS implies.
func extractCycle(stack []ident.ModuleIdentifier, target ident.ModuleIdentifier) []ident.ModuleIdentifier {
	for i, id := range stack {
		if id == target {
			cycle := append([]ident.ModuleIdentifier(nil), stack[i:]...)
			return cycle
		}
	}
	return nil
}

// cycleKey canonicalizes a cycle to its lexicographically smallest
// rotation, so the same cycle reached from two different starting
// modules still dedupes to one diagnostic.
func cycleKey(cycle []ident.ModuleIdentifier) string {
	best := ""
	for start := range cycle {
		var b strings.Builder
		for i := 0; i < len(cycle); i++ {
			b.WriteString(cycle[(start+i)%len(cycle)].String())
			b.WriteByte('\x00')
		}
		candidate := b.String()
		if best == "" || candidate < best {
			best = candidate
		}
	}
	return best
}

func describeCycle(cycle []ident.ModuleIdentifier) string {
	names := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		names = append(names, id.String())
	}
	if len(names) > 0 {
		names = append(names, names[0])
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(names, " -> "))
}
