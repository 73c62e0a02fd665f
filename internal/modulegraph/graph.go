package modulegraph

import (
	"sort"
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// Graph is the arena owning every Module, Connection, and
// AsyncDependenciesBlock for one Compilation. Cross-entity links are ids,
// never pointers (spec.md §9): callers resolve a Module/Connection/Block by
// id through this type rather than following embedded references.
type Graph struct {
	mu          sync.RWMutex
	modules     map[ident.ModuleIdentifier]Module
	connections map[ident.DependencyId]*Connection
	blocks      map[ident.BlockIdentifier]*AsyncDependenciesBlock
	deps        map[ident.DependencyId]Dependency
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		modules:     make(map[ident.ModuleIdentifier]Module),
		connections: make(map[ident.DependencyId]*Connection),
		blocks:      make(map[ident.BlockIdentifier]*AsyncDependenciesBlock),
		deps:        make(map[ident.DependencyId]Dependency),
	}
}

// AddDependency registers the concrete Dependency value behind a
// DependencyId, so later passes (exports-info usage analysis, code
// generation) can recover it from a Connection without the originating
// parser's ParseResult still being in scope.
func (g *Graph) AddDependency(d Dependency) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deps[d.ID()] = d
}

// Dependency resolves a DependencyId to its Dependency value.
func (g *Graph) Dependency(id ident.DependencyId) (Dependency, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.deps[id]
	return d, ok
}

// AddModule registers a module, replacing any existing entry with the same
// identity.
func (g *Graph) AddModule(m Module) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modules[m.Identifier()] = m
}

// Module resolves a ModuleIdentifier to its Module, if built.
func (g *Graph) Module(id ident.ModuleIdentifier) (Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.modules[id]
	return m, ok
}

// AddConnection registers a Connection indexed by its Dependency's id.
func (g *Graph) AddConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connections[c.Dependency] = c
}

// Connection resolves a DependencyId to its Connection, if the dependency
// has been resolved to a target module.
func (g *Graph) Connection(dep ident.DependencyId) (*Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.connections[dep]
	return c, ok
}

// AddBlock registers an AsyncDependenciesBlock.
func (g *Graph) AddBlock(b *AsyncDependenciesBlock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocks[b.Id] = b
}

// Block resolves a BlockIdentifier to its AsyncDependenciesBlock.
func (g *Graph) Block(id ident.BlockIdentifier) (*AsyncDependenciesBlock, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.blocks[id]
	return b, ok
}

// ModuleCount returns the number of registered modules.
func (g *Graph) ModuleCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// SortedModuleIDs returns every registered ModuleIdentifier sorted
// lexicographically, the deterministic iteration order spec.md §4.4
// requires for anything that feeds output.
func (g *Graph) SortedModuleIDs() []ident.ModuleIdentifier {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]ident.ModuleIdentifier, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// OutgoingConnections returns the resolved Connection for each of a
// module's Dependencies, skipping any dependency not yet resolved to a
// target (e.g. still queued, or permanently unresolved after an ignored
// optional-dependency placeholder).
func (g *Graph) OutgoingConnections(m Module) []*Connection {
	deps := m.Dependencies()
	out := make([]*Connection, 0, len(deps))
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, d := range deps {
		if c, ok := g.connections[d]; ok {
			out = append(out, c)
		}
	}
	return out
}
