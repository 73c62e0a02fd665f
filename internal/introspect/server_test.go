package introspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesPublishedSnapshot(t *testing.T) {
	s := NewServer(DefaultServerConfig(), nil)
	s.UpdateSnapshot(&Snapshot{
		Modules: []ModuleSnapshot{{ID: "/src/a.js", Type: "javascript/esm"}},
		Chunks:  []ChunkSnapshot{{ID: "0", Name: "main"}},
		Assets:  []AssetSnapshot{{Filename: "main.js", Size: 12}},
	})

	for path, target := range map[string]any{
		"/graph/modules": &[]ModuleSnapshot{},
		"/graph/chunks":  &[]ChunkSnapshot{},
		"/assets":        &[]AssetSnapshot{},
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target), path)
	}
}

func TestServer_ServesSingleModuleAndChunk(t *testing.T) {
	s := NewServer(DefaultServerConfig(), nil)
	s.UpdateSnapshot(&Snapshot{
		Modules: []ModuleSnapshot{{ID: "/src/a.js", Type: "javascript/esm"}},
		Chunks:  []ChunkSnapshot{{ID: "0", Name: "main"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/graph/modules//src/a.js", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var mod ModuleSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mod))
	assert.Equal(t, "/src/a.js", mod.ID)

	req = httptest.NewRequest(http.MethodGet, "/graph/chunks/0", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var chunk ChunkSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chunk))
	assert.Equal(t, "0", chunk.ID)
}

func TestServer_UnknownModuleNotFound(t *testing.T) {
	s := NewServer(DefaultServerConfig(), nil)
	s.UpdateSnapshot(&Snapshot{})

	req := httptest.NewRequest(http.MethodGet, "/graph/modules/nope", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_EmptyBeforeFirstSnapshot(t *testing.T) {
	s := NewServer(DefaultServerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/graph/modules", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var modules []ModuleSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	assert.Empty(t, modules)
}
