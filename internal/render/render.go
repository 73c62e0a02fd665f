package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/codegen"
	"github.com/jmylchreest/wbcore/internal/hashutil"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/runtimereq"
)

// RenderOptions carries the per-compilation knobs RenderChunk needs to
// resolve ids and filenames. Options are frozen at Compilation
// construction time (spec.md Section 6).
type RenderOptions struct {
	ModuleIDs        map[ident.ModuleIdentifier]string
	ChunkIDs         map[ident.ChunkUkey]string
	FilenameTemplate FilenameTemplate
	BuildHash        string
	HashLength       int
}

// RenderedChunk is one chunk's rendered output: the per-source-type
// content hashes, the combined chunk hash, and the assets actually
// emitted (one per source-type present in the chunk).
type RenderedChunk struct {
	Chunk       ident.ChunkUkey
	ContentHash map[modulegraph.SourceType]string
	ChunkHash   string
	Assets      []Asset
}

var sourceTypeExt = map[modulegraph.SourceType]string{
	modulegraph.SourceTypeJavaScript: "js",
	modulegraph.SourceTypeCSS:        "css",
	modulegraph.SourceTypeWASM:       "wasm",
	modulegraph.SourceTypeAsset:      "bin",
	modulegraph.SourceTypeRuntime:    "js",
}

// RenderChunk orders a chunk's modules by the owning chunk group's
// pre-order index, concatenates their already-generated bodies (one
// internal/codegen.GenerationResult per module, keyed by module id),
// folds in chunk-scoped init fragments, prefixes the runtime header
// when chunk is a runtime chunk, hashes the result per source-type, and
// resolves each asset's filename. Implements spec.md Section 4.7 steps
// 1 through 7.
func RenderChunk(graph *chunkgraph.Graph, chunk *chunkgraph.Chunk, results map[ident.ModuleIdentifier]*codegen.GenerationResult, runtimeModules []runtimereq.RuntimeModule, opts RenderOptions) (*RenderedChunk, error) {
	group, ok := graph.GroupOwningChunk(chunk.Ukey)
	if !ok {
		return nil, fmt.Errorf("render: chunk %s has no owning chunk group", chunk.Ukey)
	}

	ordered := orderModules(group, chunk.SortedModules())

	bodiesByType := map[modulegraph.SourceType][]string{}
	fragments := codegen.NewFragmentList()
	seenFragments := map[fragmentKey]bool{}

	for _, id := range ordered {
		result, ok := results[id]
		if !ok {
			return nil, fmt.Errorf("render: no code-generation result for module %q in chunk %s", id, chunk.Ukey)
		}
		bodiesByType[result.SourceType] = append(bodiesByType[result.SourceType], result.Body)
		for _, f := range result.Fragments {
			key := fragmentKey{f.Stage, f.Position, f.Source, f.EndSource}
			if seenFragments[key] {
				continue
			}
			seenFragments[key] = true
			fragments.Add(f)
		}
	}

	if chunk.IsRuntimeChunk {
		if _, hasJS := bodiesByType[modulegraph.SourceTypeJavaScript]; !hasJS {
			if _, hasRuntime := bodiesByType[modulegraph.SourceTypeRuntime]; !hasRuntime {
				// A runtime chunk carries the bootstrap block even when it
				// owns no content modules of its own (the common case: the
				// runtime chunk is split out from every entry chunk), so it
				// still needs one JS asset to hang runtimeModuleHeader on.
				bodiesByType[modulegraph.SourceTypeRuntime] = nil
			}
		}
	}

	types := make([]modulegraph.SourceType, 0, len(bodiesByType))
	for t := range bodiesByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	contentHash := map[modulegraph.SourceType]string{}
	assets := make([]Asset, 0, len(types))
	var chunkHashParts []string

	for _, srcType := range types {
		joined := strings.Join(bodiesByType[srcType], ",\n")
		var body string
		switch srcType {
		case modulegraph.SourceTypeJavaScript, modulegraph.SourceTypeRuntime:
			body = renderJSChunkBody(joined, runtimeModules, chunk.IsRuntimeChunk)
		default:
			body = joined
		}
		body = fragments.Render(body)

		hash := hashutil.Hash([]byte(body))
		if opts.HashLength > 0 {
			hash = hashutil.Truncate(hash, opts.HashLength)
		}
		contentHash[srcType] = hash
		chunkHashParts = append(chunkHashParts, hash)
		chunk.ContentHash[string(srcType)] = hash

		info := AssetInfo{SourceFilename: string(srcType)}
		if srcType == modulegraph.SourceTypeAsset {
			if w, h, ok := decodeImageDimensions([]byte(body)); ok {
				info.Width, info.Height = w, h
			}
		}
		assets = append(assets, Asset{
			Source: []byte(body),
			Info:   info,
		})
	}

	chunkHash := hashutil.Combine(chunkHashParts...)

	for i, srcType := range types {
		tokens := TokenValues{
			Name:        chunk.Name,
			ID:          opts.ChunkIDs[chunk.Ukey],
			Hash:        opts.BuildHash,
			ChunkHash:   chunkHash,
			ContentHash: contentHash[srcType],
			Ext:         sourceTypeExt[srcType],
		}
		filename := opts.FilenameTemplate.Render(tokens)
		assets[i].Filename = filename
		assets[i].Info.Immutable = strings.Contains(string(opts.FilenameTemplate), "[contenthash]") ||
			strings.Contains(string(opts.FilenameTemplate), "[chunkhash]")
		if strings.Contains(string(opts.FilenameTemplate), "[hash]") {
			assets[i].Info.FullHashFilename = filename
		}
	}

	chunk.Files = chunk.Files[:0]
	for _, a := range assets {
		chunk.Files = append(chunk.Files, a.Filename)
	}

	return &RenderedChunk{
		Chunk:       chunk.Ukey,
		ContentHash: contentHash,
		ChunkHash:   chunkHash,
		Assets:      assets,
	}, nil
}

type fragmentKey struct {
	stage, position uint32
	source, end     string
}

// orderModules sorts a chunk's module set by the owning group's
// pre-order index (spec.md Section 4.7 step 1); a module the group
// never recorded an index for sorts after all indexed ones, by
// identifier, for determinism.
func orderModules(group *chunkgraph.ChunkGroup, modules []ident.ModuleIdentifier) []ident.ModuleIdentifier {
	out := append([]ident.ModuleIdentifier(nil), modules...)
	sort.Slice(out, func(i, j int) bool {
		pi, oki := group.PreOrderIndex(out[i])
		pj, okj := group.PreOrderIndex(out[j])
		if oki && okj {
			return pi < pj
		}
		if oki != okj {
			return oki
		}
		return out[i].String() < out[j].String()
	})
	return out
}

// runtimeModuleHeader renders every attached runtime module's bootstrap
// code, in the order runtimereq.PropagateTree produced it (stage, then
// name), ahead of the modules object.
func runtimeModuleHeader(modules []runtimereq.RuntimeModule) string {
	var b strings.Builder
	for _, m := range modules {
		b.WriteString(m.Generate())
		b.WriteString("\n")
	}
	return b.String()
}

// renderJSChunkBody assembles the modules object literal for a chunk's
// JavaScript/runtime source type, prefixing the runtime-modules
// bootstrap block when this is the entrypoint's runtime chunk (spec.md
// Section 4.7 step 4: runtime chunk vs. secondary chunk format differs).
func renderJSChunkBody(modulesObjectBody string, runtimeModules []runtimereq.RuntimeModule, isRuntimeChunk bool) string {
	modulesObject := "{\n" + modulesObjectBody + "\n}"
	if !isRuntimeChunk {
		return "__w_install_chunk__(" + modulesObject + ");"
	}
	return runtimeModuleHeader(runtimeModules) + "__w_bootstrap__(" + modulesObject + ");"
}
