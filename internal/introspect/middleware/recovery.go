package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jmylchreest/wbcore/internal/observability"
)

// Recovery is a middleware that recovers from panics and logs the error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// Get request ID if available
					requestID := GetRequestID(r.Context())

					scoped := logger
					if moduleID := observability.ModuleIDFromContext(r.Context()); moduleID != "" {
						scoped = observability.WithModuleID(scoped, moduleID)
					}
					if chunkUkey := observability.ChunkUkeyFromContext(r.Context()); chunkUkey != "" {
						scoped = observability.WithChunkUkey(scoped, chunkUkey)
					}

					scoped.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", requestID),
					)

					// Return 500 Internal Server Error
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
