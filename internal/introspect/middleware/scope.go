package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/wbcore/internal/observability"
)

// ModuleScope attaches the wildcard tail of a per-module debug route (GET
// /graph/modules/*, matching module identifiers that are themselves
// slash-separated resource paths like "/src/a.js") to the request context
// as a module_id field, so logging and panic recovery downstream can
// identify which module a request concerned without re-parsing the URL
// themselves.
func ModuleScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "*")
		ctx := observability.ContextWithModuleID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ChunkScope attaches the {ukey} URL parameter of a per-chunk debug route
// (GET /graph/chunks/{ukey}) to the request context as a chunk_ukey field.
func ChunkScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ukey := chi.URLParam(r, "ukey")
		ctx := observability.ContextWithChunkUkey(r.Context(), ukey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
