package compiler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// moduleTypeForPath maps a resolved resource's extension to the
// ModuleType the fixture build assigns it, and the loader chain (bare
// names resolved against loaderRegistry) that resource's NormalModule
// carries. Concrete extension-to-type/loader mapping is normally a
// configuration concern; this fixture hardcodes the handful of
// extensions its testdata actually uses.
func moduleTypeForPath(p string) (modulegraph.ModuleType, []string) {
	switch {
	case strings.HasSuffix(p, ".css"):
		return modulegraph.ModuleTypeCSS, []string{"outer-loader", "inner-loader"}
	case strings.HasSuffix(p, ".png"), strings.HasSuffix(p, ".svg"):
		return modulegraph.ModuleTypeAssetResource, nil
	default:
		return modulegraph.ModuleTypeJSESM, nil
	}
}

// Factory is the fixture modulegraph.ModuleFactory: it resolves a
// dependency's request against the in-memory filesystem using plain
// relative-path joins (no node_modules/bare-specifier resolution) and
// constructs a NormalModule typed by extension.
type Factory struct {
	FS    *MemFS
	Table *ident.Table
}

// NewFactory returns a Factory sharing fs and table with the rest of a
// build's collaborators.
func NewFactory(fs *MemFS, table *ident.Table) *Factory {
	return &Factory{FS: fs, Table: table}
}

// Factorize implements modulegraph.ModuleFactory.
func (f *Factory) Factorize(_ context.Context, req modulegraph.FactorizeRequest) (modulegraph.FactorizeResult, error) {
	resolved := resolveRelative(req.Context, req.Dependency.Request())
	if !f.FS.Has(resolved) {
		return modulegraph.FactorizeResult{}, fmt.Errorf("cannot resolve %q from %q", req.Dependency.Request(), req.Context)
	}

	id := f.Table.Intern(resolved)
	typ, loaderChain := moduleTypeForPath(resolved)
	resource := modulegraph.ResourceData{Path: resolved, Context: path.Dir(resolved)}
	mod := modulegraph.NewNormalModule(id, typ, resource, loaderChain, req.Layer)
	return modulegraph.FactorizeResult{Module: mod, NeedsBuild: true}, nil
}
