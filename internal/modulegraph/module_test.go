package modulegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/wbcore/internal/ident"
)

func TestNormalModule_DowncastProbes(t *testing.T) {
	table := ident.NewTable()
	nm := NewNormalModule(table.Intern("/a.js"), ModuleTypeJSESM, ResourceData{Path: "/a.js"}, nil, "")

	var m Module = nm
	got, ok := m.AsNormalModule()
	assert.True(t, ok)
	assert.Same(t, nm, got)

	_, ok = m.AsContextModule()
	assert.False(t, ok)
	_, ok = m.AsRawModule()
	assert.False(t, ok)
	_, ok = m.AsExternalModule()
	assert.False(t, ok)
}

func TestRawModule_CarriesLiteralSource(t *testing.T) {
	table := ident.NewTable()
	rm := NewRawModule(table.Intern("(ignored)!./missing"), ModuleTypeJSAuto, []byte("/* (ignored) */"), "(ignored)")

	var m Module = rm
	got, ok := m.AsRawModule()
	assert.True(t, ok)
	assert.Equal(t, "/* (ignored) */", string(got.Source()))
}

func TestExternalModule_Identity(t *testing.T) {
	table := ident.NewTable()
	em := NewExternalModule(table.Intern("external react"), "commonjs", "react")

	var m Module = em
	got, ok := m.AsExternalModule()
	assert.True(t, ok)
	assert.Equal(t, "react", got.ExternalRequest)
}

func TestContextModule_Identity(t *testing.T) {
	table := ident.NewTable()
	cm := NewContextModule(table.Intern("context /src/icons"), "/src/icons", `\.svg$`, true, "")

	var m Module = cm
	got, ok := m.AsContextModule()
	assert.True(t, ok)
	assert.Equal(t, "/src/icons", got.Directory)
	assert.True(t, got.Recursive)
}
