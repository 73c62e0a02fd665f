// Package introspect implements a read-only HTTP debugging surface over
// the most recently completed Compilation: JSON dumps of the module
// graph, chunk graph and emitted assets (spec.md §10). It is not part of
// the compilation pipeline itself — wired up behind the `wbcore graph
// --serve` CLI flag, grounded on the teacher's internal/http.Server.
package introspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/wbcore/internal/introspect/middleware"
	"github.com/jmylchreest/wbcore/internal/observability"
)

// ServerConfig holds the introspection HTTP server's configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "127.0.0.1",
		Port:            8081,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the read-only debugging HTTP server. Unlike a Compilation,
// a Server is long-lived across builds (e.g. in `wbcore watch --serve`)
// and holds only ever the latest Snapshot, swapped atomically after each
// build completes.
type Server struct {
	config     ServerConfig
	router     *chi.Mux
	httpServer *http.Server
	logger     *slog.Logger
	snapshot   atomic.Pointer[Snapshot]
}

// NewServer creates a debugging server. No Snapshot is published until the
// first UpdateSnapshot call; requests before that see an empty Snapshot,
// not an error.
func NewServer(config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{config: config, logger: logger}
	s.snapshot.Store(&Snapshot{})

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.NewLoggingMiddleware(logger))
	router.Use(middleware.Recovery(logger))

	router.Get("/graph/modules", s.handleModules)
	router.Get("/graph/chunks", s.handleChunks)
	router.Get("/assets", s.handleAssets)

	router.With(middleware.ModuleScope).Get("/graph/modules/*", s.handleModule)
	router.With(middleware.ChunkScope).Get("/graph/chunks/{ukey}", s.handleChunk)

	s.router = router
	return s
}

// UpdateSnapshot publishes a new Snapshot, replacing whatever was served
// before. Safe to call concurrently with in-flight requests.
func (s *Server) UpdateSnapshot(snap *Snapshot) {
	if snap == nil {
		snap = &Snapshot{}
	}
	s.snapshot.Store(snap)
}

// Router returns the chi router, for tests or for mounting additional
// routes before Start.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot.Load().Modules)
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot.Load().Chunks)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot.Load().Assets)
}

// handleModule serves a single module's debugging view, identified by its
// interned identifier string (middleware.ModuleScope has already attached
// it to r.Context() as module_id for the surrounding logging/recovery
// middleware, so lookup here just re-reads it rather than re-parsing the
// URL).
func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	id := observability.ModuleIDFromContext(r.Context())
	for _, mod := range s.snapshot.Load().Modules {
		if mod.ID == id {
			writeJSON(w, mod)
			return
		}
	}
	http.Error(w, "module not found", http.StatusNotFound)
}

// handleChunk serves a single chunk's debugging view, identified by its
// ukey string.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	ukey := observability.ChunkUkeyFromContext(r.Context())
	for _, chunk := range s.snapshot.Load().Chunks {
		if chunk.ID == ukey {
			writeJSON(w, chunk)
			return
		}
	}
	http.Error(w, "chunk not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting introspection server", slog.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting introspection server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down introspection server: %w", err)
	}
	s.logger.Info("introspection server stopped")
	return nil
}

// ListenAndServe starts the server in the background and blocks until ctx
// is cancelled or the server fails, then shuts it down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() { errChan <- s.Start() }()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}
