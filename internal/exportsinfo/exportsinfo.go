package exportsinfo

import (
	"sort"
	"sync"

	"github.com/jmylchreest/wbcore/internal/ident"
)

// RetargetInfo records that an export is re-exported from another module's
// export under a dependency, used to follow re-export chains during usage
// propagation (spec.md §4.3 "Target").
type RetargetInfo struct {
	Module     ident.ModuleIdentifier
	ExportName string
}

// ExportInfo is the per-export record: whether it is provided, how it is
// used per runtime, whether it may be mangled/inlined, and what it targets
// if it is a re-export (spec.md §4.3 data model).
type ExportInfo struct {
	Name string

	Provided ProvidedState

	// Used maps a runtime-spec key (runtimespec.Spec.Key()) to the usage
	// state observed for that runtime. A missing key means Unused.
	Used map[string]UsageState

	CanMangle    *bool
	CanInline    *bool
	InlinedValue any

	// Target is non-empty when this export is a re-export of another
	// module's export, keyed by the re-exporting dependency so multiple
	// conflicting re-exports of the same name can all be recorded.
	Target map[ident.DependencyId]RetargetInfo

	// Nested holds the ExportsInfo of this export's own value, used for
	// "only properties used" narrowing (e.g. `import {x} from 'm'; use
	// x.prop` marks only `prop` of x as used, not all of x's exports).
	Nested *ExportsInfo
}

func newExportInfo(name string) *ExportInfo {
	return &ExportInfo{
		Name:     name,
		Provided: ProvidedUnknown,
		Used:     make(map[string]UsageState),
		Target:   make(map[ident.DependencyId]RetargetInfo),
	}
}

// UsageFor returns the usage state recorded for the given runtime key, or
// Unused if nothing has been recorded yet.
func (e *ExportInfo) UsageFor(runtimeKey string) UsageState {
	if e.Used == nil {
		return Unused
	}
	if u, ok := e.Used[runtimeKey]; ok {
		return u
	}
	return Unused
}

// SetUsed joins the given state into the existing usage for runtimeKey
// (spec.md §4.3: usage only ever strengthens, never weakens, within a
// build).
func (e *ExportInfo) SetUsed(runtimeKey string, state UsageState) {
	if e.Used == nil {
		e.Used = make(map[string]UsageState)
	}
	e.Used[runtimeKey] = Join(e.Used[runtimeKey], state)
}

// IsUsed reports whether this export has any recorded usage above Unused
// for the given runtime.
func (e *ExportInfo) IsUsed(runtimeKey string) bool {
	return e.UsageFor(runtimeKey) > Unused
}

// ExportsInfo is the nested tree of a module's export metadata (spec.md
// §4.3): a distinguished "other exports" catch-all info for names not
// individually tracked, a side-effects-only info for the module's own
// evaluation, and a map of individually named exports.
type ExportsInfo struct {
	mu sync.RWMutex

	Module ident.ModuleIdentifier

	// OtherExportsInfo represents every export not explicitly present in
	// Named: its Provided/Used state is the fallback for unknown names.
	OtherExportsInfo *ExportInfo

	// SideEffectsOnlyInfo tracks usage of the module purely for its side
	// effects (`import 'm'` with no bindings).
	SideEffectsOnlyInfo *ExportInfo

	Named map[string]*ExportInfo

	// order remembers insertion order for deterministic
	// iteration (e.g. renaming, introspection dumps).
	order []string
}

// New creates an empty ExportsInfo for the given module, owned fresh with
// conservative defaults: other exports' provided state is Unknown (and
// their usage Unused) until the FlagXxx passes refine them.
func New(module ident.ModuleIdentifier) *ExportsInfo {
	return &ExportsInfo{
		Module:              module,
		OtherExportsInfo:    newExportInfo("*"),
		SideEffectsOnlyInfo: newExportInfo(""),
		Named:               make(map[string]*ExportInfo),
	}
}

// ExportInfoFor returns the ExportInfo for name, creating it (seeded from
// OtherExportsInfo's current Provided state) if this is the first time name
// is seen.
func (ei *ExportsInfo) ExportInfoFor(name string) *ExportInfo {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	if info, ok := ei.Named[name]; ok {
		return info
	}
	info := newExportInfo(name)
	info.Provided = ei.OtherExportsInfo.Provided
	ei.Named[name] = info
	ei.order = append(ei.order, name)
	return info
}

// OrderedNames returns the named exports in first-seen order.
func (ei *ExportsInfo) OrderedNames() []string {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	out := make([]string, len(ei.order))
	copy(out, ei.order)
	return out
}

// SortedNames returns the named exports sorted lexicographically, for
// deterministic output regardless of discovery order (spec.md §8 property
// #1, generalized to export iteration).
func (ei *ExportsInfo) SortedNames() []string {
	names := ei.OrderedNames()
	sort.Strings(names)
	return names
}

// IsExportProvided reports whether name is known to be provided, not
// provided, or unknown, falling back to OtherExportsInfo when name has no
// individual record.
func (ei *ExportsInfo) IsExportProvided(name string) ProvidedState {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	if info, ok := ei.Named[name]; ok {
		return info.Provided
	}
	return ei.OtherExportsInfo.Provided
}

// IsUsed reports whether name is used (directly or via the other-exports
// catch-all) for the given runtime key.
func (ei *ExportsInfo) IsUsed(name, runtimeKey string) bool {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	if info, ok := ei.Named[name]; ok && info.IsUsed(runtimeKey) {
		return true
	}
	return ei.OtherExportsInfo.IsUsed(runtimeKey)
}

// IsModuleUsed reports whether anything about this module (a named export,
// the other-exports catch-all, or side effects) is used for runtimeKey.
func (ei *ExportsInfo) IsModuleUsed(runtimeKey string) bool {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	if ei.SideEffectsOnlyInfo.IsUsed(runtimeKey) || ei.OtherExportsInfo.IsUsed(runtimeKey) {
		return true
	}
	for _, info := range ei.Named {
		if info.IsUsed(runtimeKey) {
			return true
		}
	}
	return false
}
