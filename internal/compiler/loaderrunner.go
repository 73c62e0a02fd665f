package compiler

import (
	"context"
	"fmt"

	"github.com/jmylchreest/wbcore/internal/loader"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// prefixLoader returns a LoaderItem whose normal phase prepends a marker
// comment, letting a test observe the right-to-left normal-phase order in
// the final source without needing a real CSS/JS transform.
func prefixLoader(name, marker string) loader.LoaderItem {
	return loader.LoaderItem{
		Name: name,
		Normal: func(_ *loader.LoaderContext, input []byte) ([]byte, error) {
			return append([]byte(marker), input...), nil
		},
	}
}

// loaderRegistry resolves a loader chain's bare names (as recorded on a
// NormalModule's LoaderChain) to concrete loader.LoaderItem values. Real
// loader resolution (npm package lookup, options schema) is out of this
// core's scope; this fixture only needs two named loaders to exercise the
// pitch/normal ordering.
var loaderRegistry = map[string]loader.LoaderItem{
	"outer-loader": prefixLoader("outer-loader", "/* outer */"),
	"inner-loader": prefixLoader("inner-loader", "/* inner */"),
}

// FixtureLoaderRunner implements modulegraph.LoaderRunner over the named
// loaderRegistry above, wrapping internal/loader.Chain exactly the way a
// real compilation does.
type FixtureLoaderRunner struct{}

// Run builds a loader.Chain from the requested names and executes it
// against fs, reading the resource fresh for every call (no chain is
// cached across rebuilds — caching belongs to the incremental cache
// layer, not the loader runner).
func (FixtureLoaderRunner) Run(ctx context.Context, resource modulegraph.ResourceData, loaderChain []string, fs modulegraph.FileSystem) ([]byte, []modulegraph.EmittedAsset, error) {
	chain := &loader.Chain{}
	for _, name := range loaderChain {
		item, ok := loaderRegistry[name]
		if !ok {
			return nil, nil, fmt.Errorf("no loader registered: %s", name)
		}
		chain.Items = append(chain.Items, item)
	}

	lres := loader.ResourceData{Resource: resource.Path, Query: resource.Query, Fragment: resource.Fragment}
	output, emitted, err := chain.Run(ctx, lres, func(ctx context.Context, r loader.ResourceData) ([]byte, error) {
		return fs.ReadFile(ctx, r.Resource)
	})
	if err != nil {
		return nil, nil, err
	}

	assets := make([]modulegraph.EmittedAsset, 0, len(emitted))
	for _, a := range emitted {
		assets = append(assets, modulegraph.EmittedAsset{Filename: a.Filename, Content: a.Content})
	}
	return output, assets, nil
}
