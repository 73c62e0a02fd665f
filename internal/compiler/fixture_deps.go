package compiler

import (
	"github.com/jmylchreest/wbcore/internal/exportsinfo"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// The dependency variants below are the fixture parsers' own vocabulary:
// each implements modulegraph.Dependency via an embedded BaseDependency,
// plus whichever of exportsinfo.ExportConsumer/SideEffectOnly its shape
// warrants, so FlagUsedExports sees real usage information instead of
// falling back to the conservative "consumes everything" default every
// dependency gets by not implementing either interface.

// sideEffectImportDependency models a bare `import "x";`: it triggers
// evaluation of its target but reads no export.
type sideEffectImportDependency struct {
	modulegraph.BaseDependency
}

func (sideEffectImportDependency) IsSideEffectOnly() bool { return true }

// namedImportDependency models `import { a, b } from "x";`: it reads
// exactly the named bindings, nothing else.
type namedImportDependency struct {
	modulegraph.BaseDependency
	Names []string
}

func (d *namedImportDependency) ConsumedExports() ([]string, exportsinfo.UsageState, bool) {
	return d.Names, exportsinfo.Used, false
}

// namespaceImportDependency models `import * as ns from "x";`: because ns
// may be indexed by a computed member expression, every export (including
// ones this dependency's own parse couldn't enumerate) must be treated as
// used.
type namespaceImportDependency struct {
	modulegraph.BaseDependency
}

func (namespaceImportDependency) ConsumedExports() ([]string, exportsinfo.UsageState, bool) {
	return nil, exportsinfo.Used, true
}

// dynamicImportDependency models the target of `import("x")`: the caller
// receives the whole module namespace object, so it is treated the same
// as a namespace import for usage-flagging purposes.
type dynamicImportDependency struct {
	modulegraph.BaseDependency
}

func (dynamicImportDependency) ConsumedExports() ([]string, exportsinfo.UsageState, bool) {
	return nil, exportsinfo.Used, true
}

// urlDependency models a `new URL("x", import.meta.url)` or CSS url(...)
// reference to an emitted asset; it never reads an export, only the
// target's emitted filename, so it is side-effect-only in exports-info
// terms even though its codegen template (urlTemplate) is unrelated to
// module evaluation order.
type urlDependency struct {
	modulegraph.BaseDependency
}

func (urlDependency) IsSideEffectOnly() bool { return true }
