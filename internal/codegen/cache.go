package codegen

import (
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimespec"
)

type cacheKey struct {
	module      ident.ModuleIdentifier
	runtimeHash string
}

// CodeGenerationResults caches Generate's output per (module-id,
// runtime-hash) (spec.md §4.5 "Output is cached ... in the
// CodeGenerationResults artifact"; §5 "Code generation per module is
// idempotent" — concurrent GetOrGenerate calls for the same key may race
// to compute it, but always agree on the result).
type CodeGenerationResults struct {
	mu      sync.RWMutex
	results map[cacheKey]*GenerationResult
}

// NewCodeGenerationResults returns an empty cache.
func NewCodeGenerationResults() *CodeGenerationResults {
	return &CodeGenerationResults{results: make(map[cacheKey]*GenerationResult)}
}

// Get returns the cached result for (module, runtime), if present.
func (c *CodeGenerationResults) Get(module ident.ModuleIdentifier, runtime runtimespec.Spec) (*GenerationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[cacheKey{module: module, runtimeHash: runtime.Key()}]
	return r, ok
}

// Set records result for (module, runtime).
func (c *CodeGenerationResults) Set(module ident.ModuleIdentifier, runtime runtimespec.Spec, result *GenerationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[cacheKey{module: module, runtimeHash: runtime.Key()}] = result
}

// GetOrGenerate returns the cached result for (module, runtime), computing
// and storing it via Generate on a miss. Because Generate is pure, a
// redundant recomputation from a race between two callers is harmless —
// whichever write lands last simply overwrites with an equal value.
func (c *CodeGenerationResults) GetOrGenerate(module modulegraph.Module, runtime runtimespec.Spec, compilation CompilationView, templates *TemplateRegistry, moduleIDs map[ident.ModuleIdentifier]string, scope *ConcatenationScope) (*GenerationResult, error) {
	if result, ok := c.Get(module.Identifier(), runtime); ok {
		return result, nil
	}
	result, err := Generate(module, runtime, compilation, templates, moduleIDs, scope)
	if err != nil {
		return nil, err
	}
	c.Set(module.Identifier(), runtime, result)
	return result, nil
}
