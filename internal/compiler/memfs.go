// Package compiler is the facade package wiring every phase package
// (internal/modulegraph, internal/exportsinfo, internal/chunkgraph,
// internal/codegen, internal/runtimereq, internal/render) behind
// internal/compilation into one importable entry point, plus the
// fixture-based collaborators (MemFS, a fixture ModuleFactory and
// ParserAndGenerator pair) needed to exercise a compilation end to end
// without concrete parsers, resolvers, or OS filesystem access, which are
// outside this core's scope.
package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jmylchreest/wbcore/internal/modulegraph"
)

// MemFS is an in-memory modulegraph.FileSystem: every path is a map key,
// nothing ever touches the OS once built. It backs both the integration
// test fixtures and, via LoadDir, cmd/wbcore's build/watch/graph
// commands, which snapshot a real source tree into one before ever
// handing it to a Compilation.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemFS copies files into a fresh MemFS so later mutation by the
// caller (or by Write) never aliases the map the caller passed in.
func NewMemFS(files map[string][]byte) *MemFS {
	cp := make(map[string][]byte, len(files))
	for k, v := range files {
		cp[k] = v
	}
	return &MemFS{files: cp}
}

func (fs *MemFS) ReadFile(_ context.Context, p string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	b, ok := fs.files[p]
	if !ok {
		return nil, fmt.Errorf("memfs: no such file: %s", p)
	}
	return b, nil
}

func (fs *MemFS) ReadDir(_ context.Context, dir string) ([]modulegraph.DirEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	prefix := strings.TrimSuffix(dir, "/") + "/"
	seen := make(map[string]bool)
	var entries []modulegraph.DirEntry
	for p := range fs.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, isDir := rest, false
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name, isDir = rest[:idx], true
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, modulegraph.DirEntry{Name: name, IsDir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (fs *MemFS) Stat(_ context.Context, p string) (modulegraph.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	b, ok := fs.files[p]
	if !ok {
		return modulegraph.FileInfo{}, fmt.Errorf("memfs: no such file: %s", p)
	}
	return modulegraph.FileInfo{Size: int64(len(b))}, nil
}

// Write adds or replaces a file's content, used by cmd/wbcore's watch
// command to simulate an edited source between rebuilds of a long-lived
// MemFS.
func (fs *MemFS) Write(p string, content []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = append([]byte(nil), content...)
}

// Has reports whether path is present, used by the fixture factory to
// decide whether a request resolves before constructing a module for it.
func (fs *MemFS) Has(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.files[p]
	return ok
}

// LoadDir reads every regular file under root into a fresh MemFS, keyed
// by its path relative to root with a leading slash and forward
// slashes throughout, the same path shape Factory.Factorize and
// resolveRelative expect. cmd/wbcore's build/watch commands use this to
// snapshot a real source tree once per build, since concrete OS
// filesystem access belongs to the caller driving this facade, not to
// the core itself.
func LoadDir(root string) (*MemFS, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		key := "/" + filepath.ToSlash(rel)
		files[key] = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading source tree %s: %w", root, err)
	}
	return NewMemFS(files), nil
}

// resolveRelative joins a relative request against its containing
// directory; bare specifiers are returned unchanged since this fixture
// resolver never walks node_modules.
func resolveRelative(fromContext, request string) string {
	if strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../") {
		return path.Clean(path.Join(fromContext, request))
	}
	return request
}
