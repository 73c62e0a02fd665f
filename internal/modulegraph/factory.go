package modulegraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// FactorizeRequest carries everything a ModuleFactory needs to turn one
// dependency into a built (or at least resolvable) Module.
type FactorizeRequest struct {
	Dependency Dependency
	Context    string
	Layer      string
}

// FactorizeResult is what a ModuleFactory returns: the new (or
// already-interned, deduplicated) module plus whether it still needs a
// build pass.
type FactorizeResult struct {
	Module    Module
	NeedsBuild bool
}

// ModuleFactory is the per-DependencyType collaborator that resolves a
// dependency's request to a ResourceData (spec.md §4.1a: pre-resolve hook,
// resolve, after-resolve hook) and constructs the appropriate Module
// variant. Context modules additionally enumerate a directory here, not in
// the traversal engine.
type ModuleFactory interface {
	Factorize(ctx context.Context, req FactorizeRequest) (FactorizeResult, error)
}

// FactoryRegistry dispatches a Dependency to the ModuleFactory registered
// for its DependencyType. Grounded on the teacher's
// ingestor.HandlerFactory: a RWMutex-guarded map keyed by a type tag, with
// Register/Get/GetForDependency mirroring Register/Get/GetForSource.
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[DependencyType]ModuleFactory
}

// NewFactoryRegistry creates an empty registry. Unlike the teacher's
// factory, no defaults are registered here: concrete ModuleFactory
// implementations are external collaborators (spec.md §1), supplied by the
// caller composing a Compilation.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{factories: make(map[DependencyType]ModuleFactory)}
}

// Register adds a factory for the given dependency type, replacing any
// existing registration.
func (r *FactoryRegistry) Register(depType DependencyType, factory ModuleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[depType] = factory
}

// Get returns the factory registered for a dependency type.
func (r *FactoryRegistry) Get(depType DependencyType) (ModuleFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[depType]
	if !ok {
		return nil, fmt.Errorf("no module factory registered for dependency type: %s", depType)
	}
	return f, nil
}

// GetForDependency is a convenience wrapper over Get using the
// dependency's own Type().
func (r *FactoryRegistry) GetForDependency(dep Dependency) (ModuleFactory, error) {
	if dep == nil {
		return nil, fmt.Errorf("dependency is nil")
	}
	return r.Get(dep.Type())
}

// SupportedTypes returns every registered DependencyType.
func (r *FactoryRegistry) SupportedTypes() []DependencyType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]DependencyType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// EntryRequest is the normal, fully-specified entry-option data model
// (SPEC_FULL.md §6 Open Question resolution: no partial/placeholder
// setters — every field below is always meaningful, never a todo stub).
type EntryRequest struct {
	Name       string
	Import     []string
	DependOn   []string
	Runtime    string
	PublicPath string
}

// NewEntryDependency seeds the make phase's work queue for one import path
// of an EntryRequest.
func NewEntryDependency(id ident.DependencyId, entryName, request string) *EntryDependency {
	return &EntryDependency{
		BaseDependency: BaseDependency{Id: id, Cat: DependencyCategoryESM, Typ: DependencyTypeEntry, Req: request},
		EntryName:      entryName,
	}
}
