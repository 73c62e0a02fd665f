package modulegraph

import "github.com/jmylchreest/wbcore/internal/ident"

// GroupOptions carries the optional chunk-naming/preload hints a block may
// declare (e.g. the webpack magic comment `/* webpackChunkName: "foo" */`
// equivalent). A nil *GroupOptions means "no hint, synthesize a name".
type GroupOptions struct {
	ChunkName string
}

// AsyncDependenciesBlock is a tree node rooted at a module; each block
// becomes at least one chunk group once the chunk graph is built (spec.md
// §3, §4.4 step 3).
type AsyncDependenciesBlock struct {
	Id      ident.BlockIdentifier
	Parent  ident.ModuleIdentifier
	Deps    []ident.DependencyId
	Blocks  []ident.BlockIdentifier
	Options *GroupOptions
	Loc     Range
}
