package cmd

import (
	"strings"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/config"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// namedCacheGroupTests maps a split_chunks.cache_groups config name to the
// module predicate it resolves to. config.SplitChunksConfig.CacheGroups is
// deliberately just a []string of names (internal/compilation.Options'
// doc comment: resolving a name to a Test predicate needs module-type
// knowledge the compilation facade doesn't have), so that resolution
// happens here instead, at the one layer that also owns the CLI's
// filesystem conventions.
var namedCacheGroupTests = map[string]func(modulegraph.Module) bool{
	"vendors": func(mod modulegraph.Module) bool {
		return strings.Contains(mod.Identifier().String(), "node_modules")
	},
}

// splitChunksCacheGroups resolves cfg.SplitChunks.CacheGroups' named refs
// into chunkgraph.CacheGroups sharing one MinSize/MinChunks threshold
// (split_chunks.max_size is not applied to them), read straight from the same config.ByteSize values "20KB"
// config literals parse into (internal/config/bytesize.go wraps
// pkg/bytesize for the YAML/env layer; chunkgraph.CacheGroup.MinSize is
// typed in the pkg/bytesize.Size the splitting algorithm itself compares
// against). Unknown names are skipped rather than erroring: a typo in
// split_chunks.cache_groups degrades to "that group never matches"
// instead of refusing to build.
func splitChunksCacheGroups(cfg *config.Config) []chunkgraph.CacheGroup {
	if !cfg.SplitChunks.Enabled {
		return nil
	}
	groups := make([]chunkgraph.CacheGroup, 0, len(cfg.SplitChunks.CacheGroups))
	for _, name := range cfg.SplitChunks.CacheGroups {
		test, ok := namedCacheGroupTests[name]
		if !ok {
			continue
		}
		groups = append(groups, chunkgraph.CacheGroup{
			Name:      name,
			Test:      test,
			MinChunks: cfg.SplitChunks.MinChunks,
			MinSize:   cfg.SplitChunks.MinSize.Size(),
		})
	}
	return groups
}
