package compilation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/config"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

type fakeFS struct {
	files map[string][]byte
}

func (f *fakeFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return b, nil
}
func (f *fakeFS) ReadDir(ctx context.Context, path string) ([]modulegraph.DirEntry, error) {
	return nil, nil
}
func (f *fakeFS) Stat(ctx context.Context, path string) (modulegraph.FileInfo, error) {
	return modulegraph.FileInfo{}, nil
}

type passthroughLoader struct{}

func (passthroughLoader) Run(ctx context.Context, resource modulegraph.ResourceData, chain []string, fs modulegraph.FileSystem) ([]byte, []modulegraph.EmittedAsset, error) {
	b, err := fs.ReadFile(ctx, resource.Path)
	return b, nil, err
}

type fakeParser struct {
	counters *ident.Counters
	imports  map[string][]string
}

func (p *fakeParser) Parse(ctx context.Context, source []byte, resource modulegraph.ResourceData) (modulegraph.ParseResult, error) {
	var deps []modulegraph.Dependency
	for _, req := range p.imports[resource.Path] {
		deps = append(deps, &modulegraph.BaseDependency{
			Id:  p.counters.NextDependencyID(),
			Cat: modulegraph.DependencyCategoryESM,
			Typ: modulegraph.DependencyTypeESMImport,
			Req: req,
		})
	}
	return modulegraph.ParseResult{Dependencies: deps, ProvidedExports: []string{}}, nil
}
func (p *fakeParser) SourceTypes() []modulegraph.SourceType {
	return []modulegraph.SourceType{modulegraph.SourceTypeJavaScript}
}

type fakeFactory struct {
	table   *ident.Table
	resolve map[string]string
}

func (f *fakeFactory) Factorize(ctx context.Context, req modulegraph.FactorizeRequest) (modulegraph.FactorizeResult, error) {
	target, ok := f.resolve[req.Dependency.Request()]
	if !ok {
		return modulegraph.FactorizeResult{}, fmt.Errorf("cannot resolve %q", req.Dependency.Request())
	}
	id := f.table.Intern(target)
	mod := modulegraph.NewNormalModule(id, modulegraph.ModuleTypeJSESM, modulegraph.ResourceData{Path: target}, nil, "")
	return modulegraph.FactorizeResult{Module: mod, NeedsBuild: true}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Output.Filename = "[name].[contenthash:8].js"
	cfg.Output.ChunkFilename = "[name].[contenthash:8].chunk.js"
	cfg.Output.ContentHashLength = 8
	cfg.Output.Parallelism = 2
	return cfg
}

func buildOptions(t *testing.T) Options {
	t.Helper()
	return buildOptionsWithTable(t, ident.NewTable())
}

// buildOptionsWithTable lets a test share one identity table across two
// separate Options (and thus two separate Compilations), so module
// identifiers for the same source path stay comparable across builds, the
// precondition a cross-build cache relies on.
func buildOptionsWithTable(t *testing.T, table *ident.Table) Options {
	t.Helper()
	counters := ident.NewCounters()

	fs := &fakeFS{files: map[string][]byte{
		"/src/main.js": []byte("import './leaf'; console.log(1)"),
		"/src/leaf.js": []byte("export const x = 1"),
	}}
	parser := &fakeParser{counters: counters, imports: map[string][]string{
		"/src/main.js": {"./leaf"},
	}}
	factory := &fakeFactory{table: table, resolve: map[string]string{
		"./main": "/src/main.js",
		"./leaf": "/src/leaf.js",
	}}

	registry := modulegraph.NewFactoryRegistry()
	registry.Register(modulegraph.DependencyTypeEntry, factory)
	registry.Register(modulegraph.DependencyTypeESMImport, factory)

	return Options{
		Config:    testConfig(),
		Entries:   []modulegraph.EntryRequest{{Name: "main", Import: []string{"./main"}}},
		Factories: registry,
		Loader:    passthroughLoader{},
		FS:        fs,
		Parsers:   map[modulegraph.ModuleType]modulegraph.ParserAndGenerator{modulegraph.ModuleTypeJSESM: parser},
	}
}

func TestCompilation_Run_ProducesOneAssetPerEntry(t *testing.T) {
	c := New(buildOptions(t))
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Assets)

	var found bool
	for filename := range result.Assets {
		if len(filename) > 0 {
			found = true
		}
	}
	assert.True(t, found)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, 2, c.ModuleGraph.ModuleCount())
	assert.NotEmpty(t, c.ModuleIDs)
	assert.NotEmpty(t, c.ChunkIDs)
}

func TestCompilation_Run_IsDeterministicAcrossRuns(t *testing.T) {
	opts := buildOptions(t)
	r1, err := New(opts).Run(context.Background())
	require.NoError(t, err)

	opts2 := buildOptions(t)
	r2, err := New(opts2).Run(context.Background())
	require.NoError(t, err)

	names1 := make([]string, 0, len(r1.Assets))
	for name := range r1.Assets {
		names1 = append(names1, name)
	}
	names2 := make([]string, 0, len(r2.Assets))
	for name := range r2.Assets {
		names2 = append(names2, name)
	}
	assert.ElementsMatch(t, names1, names2)
}

func TestCompilation_Run_CancelledContextStopsBeforeMakePhase(t *testing.T) {
	c := New(buildOptions(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx)
	assert.Error(t, err)
}

func TestCompilation_Run_UnresolvableEntryFails(t *testing.T) {
	opts := buildOptions(t)
	opts.Entries = []modulegraph.EntryRequest{{Name: "main", Import: []string{"./does-not-exist"}}}
	c := New(opts)

	_, err := c.Run(context.Background())
	assert.Error(t, err)
}

func TestCompilation_Run_PopulatesCacheAndFirstBuildDecidesRebuild(t *testing.T) {
	opts := buildOptions(t)
	opts.Cache = cache.NewUnaffectedModulesCache()
	c := New(opts)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, c.CacheDecisions, c.ModuleGraph.ModuleCount())
	for _, decision := range c.CacheDecisions {
		assert.Equal(t, cache.DecisionRebuild, decision, "a cold cache has no prior entry for any module")
	}
	assert.Equal(t, c.ModuleGraph.ModuleCount(), opts.Cache.Len())
}

func TestCompilation_Run_UnchangedSecondRunIsFullySkippable(t *testing.T) {
	shared := cache.NewUnaffectedModulesCache()
	table := ident.NewTable()

	opts1 := buildOptionsWithTable(t, table)
	opts1.Cache = shared
	_, err := New(opts1).Run(context.Background())
	require.NoError(t, err)

	opts2 := buildOptionsWithTable(t, table)
	opts2.Cache = shared
	c2 := New(opts2)
	_, err = c2.Run(context.Background())
	require.NoError(t, err)

	for id, decision := range c2.CacheDecisions {
		assert.Equal(t, cache.DecisionSkip, decision, "module %s should be fully skippable on an unchanged rebuild", id)
	}
}

func TestCompilation_Run_HashTokenUsesBuildID(t *testing.T) {
	opts := buildOptions(t)
	opts.Config.Output.Filename = "[name].[hash:8].js"
	opts.Config.Output.ChunkFilename = "[name].[hash:8].chunk.js"
	opts.Config.Output.BuildHashLength = 8
	c := New(opts)

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	wantToken := strings.ReplaceAll(c.BuildID.String(), "-", "")[:8]
	var found bool
	for filename := range result.Assets {
		if strings.Contains(filename, wantToken) {
			found = true
		}
	}
	assert.True(t, found, "expected a rendered filename to contain the build hash token %q, got %v", wantToken, result.Assets)
}

func TestCompilation_Snapshot_ReflectsCompletedBuild(t *testing.T) {
	c := New(buildOptions(t))
	result, err := c.Run(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Len(t, snap.Modules, c.ModuleGraph.ModuleCount())
	assert.Len(t, snap.Assets, len(result.Assets))
	assert.NotEmpty(t, snap.Chunks)
}
