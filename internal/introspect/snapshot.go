package introspect

import (
	"sort"

	"github.com/jmylchreest/wbcore/internal/chunkgraph"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/render"
)

// ModuleSnapshot is one module's JSON-serializable debugging view.
type ModuleSnapshot struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Context      string   `json:"context,omitempty"`
	Layer        string   `json:"layer,omitempty"`
	Dependencies []string `json:"dependencies"`
}

// ChunkSnapshot is one chunk's JSON-serializable debugging view.
type ChunkSnapshot struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	IsRuntimeChunk bool     `json:"isRuntimeChunk"`
	Modules        []string `json:"modules"`
	Files          []string `json:"files"`
}

// AssetSnapshot is one emitted asset's JSON-serializable debugging view.
type AssetSnapshot struct {
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	Immutable bool   `json:"immutable"`
}

// Snapshot is the read-only view of the most recently completed
// Compilation that GET /graph/modules, GET /graph/chunks and GET /assets
// serve (spec.md §10: "a debugging aid wired to the wbcore graph --serve
// CLI flag", not part of the compilation pipeline itself).
type Snapshot struct {
	Modules []ModuleSnapshot `json:"modules"`
	Chunks  []ChunkSnapshot  `json:"chunks"`
	Assets  []AssetSnapshot  `json:"assets"`
}

// BuildSnapshot flattens a completed build's module graph, chunk graph and
// asset map into the JSON-serializable shape the introspection server
// reads from. It never holds onto mgraph/cgraph/assets themselves: a
// Snapshot is a point-in-time copy, safe to keep around after the
// Compilation that produced it is discarded.
func BuildSnapshot(mgraph *modulegraph.Graph, cgraph *chunkgraph.Graph, assets map[string]render.Asset) *Snapshot {
	snap := &Snapshot{}

	for _, id := range mgraph.SortedModuleIDs() {
		mod, ok := mgraph.Module(id)
		if !ok {
			continue
		}
		deps := make([]string, 0, len(mod.Dependencies()))
		for _, depID := range mod.Dependencies() {
			conn, ok := mgraph.Connection(depID)
			if !ok {
				continue
			}
			deps = append(deps, conn.Target.String())
		}
		sort.Strings(deps)
		snap.Modules = append(snap.Modules, ModuleSnapshot{
			ID:           id.String(),
			Type:         string(mod.Type()),
			Context:      mod.Context(),
			Layer:        mod.Layer(),
			Dependencies: deps,
		})
	}

	if cgraph != nil {
		for _, ukey := range cgraph.SortedChunkUkeys() {
			chunk, ok := cgraph.Chunk(ukey)
			if !ok {
				continue
			}
			modIDs := chunk.SortedModules()
			modStrings := make([]string, len(modIDs))
			for i, m := range modIDs {
				modStrings[i] = m.String()
			}
			snap.Chunks = append(snap.Chunks, ChunkSnapshot{
				ID:             ukey.String(),
				Name:           chunk.Name,
				IsRuntimeChunk: chunk.IsRuntimeChunk,
				Modules:        modStrings,
				Files:          append([]string(nil), chunk.Files...),
			})
		}
	}

	filenames := make([]string, 0, len(assets))
	for filename := range assets {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)
	for _, filename := range filenames {
		asset := assets[filename]
		snap.Assets = append(snap.Assets, AssetSnapshot{
			Filename:  filename,
			Size:      len(asset.Source),
			Immutable: asset.Info.Immutable,
		})
	}

	return snap
}
