package modulegraph

import "github.com/jmylchreest/wbcore/internal/ident"

// Range is a source location, used for diagnostics and for
// DependencyTemplate range replacement in internal/codegen.
type Range struct {
	Start, End int
}

// Dependency is the capability interface every dependency variant
// implements (spec.md §9 "capability traits"). A Dependency owns the
// source range it replaces but never the replacement logic itself — that
// lives in a DependencyTemplate (internal/codegen), kept separate so this
// package has no dependency on code generation.
type Dependency interface {
	ID() ident.DependencyId
	Category() DependencyCategory
	Type() DependencyType
	Request() string
	SourceRange() (Range, bool)
}

// BaseDependency is embedded by concrete dependency variants to provide the
// common fields/behavior; variants only need to set Category/Type/Request.
type BaseDependency struct {
	Id       ident.DependencyId
	Cat      DependencyCategory
	Typ      DependencyType
	Req      string
	Rng      Range
	HasRange bool
}

func (d *BaseDependency) ID() ident.DependencyId { return d.Id }
func (d *BaseDependency) Category() DependencyCategory { return d.Cat }
func (d *BaseDependency) Type() DependencyType { return d.Typ }
func (d *BaseDependency) Request() string { return d.Req }
func (d *BaseDependency) SourceRange() (Range, bool) { return d.Rng, d.HasRange }

// ContextElementDependency is synthesized by the context-module factory,
// one per filesystem entry matched by a require.context wildcard (spec.md
// §4.1a, original_source/context_module_factory.rs).
type ContextElementDependency struct {
	BaseDependency
	UserRequest string
}

// EntryDependency seeds the make phase for a configured entry point.
type EntryDependency struct {
	BaseDependency
	EntryName string
}

// ConnectionState classifies whether a Connection is observable for a given
// runtime (spec.md §3 "connection.active is a pure function of dep +
// runtime").
type ConnectionState int

const (
	// ConnectionActive means code is generated for this edge in the
	// runtime under consideration.
	ConnectionActive ConnectionState = iota
	// ConnectionInactive means the edge is present in the graph (for
	// incremental-rebuild bookkeeping) but inert for this runtime — e.g.
	// a conditional dependency whose condition evaluated false.
	ConnectionInactive
)

// Connection is the realized edge a Dependency resolves to once its target
// module is known. Connections are owned by Graph and indexed by
// DependencyId; they are never directly reachable from Module (spec.md §3
// "Connections are owned by ModuleGraph... never directly reachable from
// Module").
type Connection struct {
	Origin     ident.ModuleIdentifier
	Dependency ident.DependencyId
	Target     ident.ModuleIdentifier
	Conditional bool

	// explicitInactive, when set, forces ActiveInRuntime to return false
	// regardless of runtime — used for connections a plugin (or the
	// exports-info engine) has determined are statically dead.
	explicitInactive bool
}

// ActiveInRuntime reports whether this connection is active for the given
// runtime (spec.md testable property #3: "Connection activity
// monotonicity"). Purely a function of the connection's own state; it does
// not consult ModuleGraph so it stays cheap to call from hot codegen paths.
func (c *Connection) ActiveInRuntime(runtime string) bool {
	if c.explicitInactive {
		return false
	}
	return !c.Conditional || runtime != ""
}

// SetInactive marks a connection as statically dead (e.g. tree-shaken out
// entirely because every export it could provide is unused).
func (c *Connection) SetInactive() {
	c.explicitInactive = true
}
