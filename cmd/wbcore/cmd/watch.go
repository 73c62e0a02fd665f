package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/wbcore/internal/cache"
	"github.com/jmylchreest/wbcore/internal/cachewire"
	"github.com/jmylchreest/wbcore/internal/compiler"
	"github.com/jmylchreest/wbcore/internal/ident"
	"github.com/jmylchreest/wbcore/internal/introspect"
)

var (
	watchSrcDir  string
	watchEntries []string
	watchOutDir  string
	watchServe   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild on every source change under --src",
	Long: `watch runs one build immediately, then watches --src with fsnotify
and triggers a fresh build (rapid successive edits are debounced into
one rebuild) whenever a file under it changes.

Every rebuild is a brand new Compilation: its module/chunk graph is never
reused. When cache.mode is "memory" or "persistent", the interned module
identifier table and unaffected-modules cache ARE shared across rebuilds
on purpose, so later rebuilds can skip re-building modules whose inputs
provably did not change; cache.mode "none" opts out and every rebuild
starts completely cold. --serve additionally starts the introspection
HTTP server and republishes its snapshot after every successful
rebuild.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSrcDir, "src", ".", "source directory to watch")
	watchCmd.Flags().StringArrayVar(&watchEntries, "entry", nil, `entry point as "name=./path", repeatable`)
	watchCmd.Flags().StringVar(&watchOutDir, "out", "", "output directory, overrides output.dir from config")
	watchCmd.Flags().BoolVar(&watchServe, "serve", false, "also start the introspection HTTP server")
}

const watchDebounce = 200 * time.Millisecond

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := slog.Default()

	entries, err := parseEntries(watchEntries)
	if err != nil {
		return err
	}

	outDir := watchOutDir
	if outDir == "" {
		outDir = loadedConfig.Output.Dir
	}

	var introspectSrv *introspect.Server
	if watchServe {
		introspectSrv = introspect.NewServer(introspect.ServerConfig{
			Host: loadedConfig.Introspect.Host,
			Port: loadedConfig.Introspect.Port,
		}, logger)
		go func() {
			if err := introspectSrv.ListenAndServe(ctx); err != nil {
				logger.ErrorContext(ctx, "introspection server stopped", slog.Any("error", err))
			}
		}()
	}

	// A shared Table/UnaffectedModulesCache pair survives across rebuilds
	// for as long as this watch process runs, the one exception to
	// Compilation's usual "fresh state per build" rule: ModuleIdentifier
	// equality is scoped to the Table it was interned through, so the
	// cache consulted by rebuild N+1 only sees what rebuild N recorded if
	// both shared the same Table. Cache.Mode == "none" opts out entirely.
	var sharedTable *ident.Table
	var unaffected *cache.UnaffectedModulesCache
	cachePath := filepath.Join(loadedConfig.Cache.Dir, "watch.cache")
	persistCache := loadedConfig.Cache.Mode == "persistent"

	switch loadedConfig.Cache.Mode {
	case "memory", "persistent":
		sharedTable = ident.NewTable()
		unaffected = cache.NewUnaffectedModulesCache()
		if persistCache {
			id, snapshot, err := cachewire.Load(cachePath, sharedTable)
			if err != nil {
				logger.WarnContext(ctx, "discarding unreadable cache file, starting cold", slog.Any("error", err))
			} else if id != "" {
				if age, err := cachewire.SnapshotAge(id); err != nil || age > loadedConfig.Cache.TTL.Duration() {
					logger.InfoContext(ctx, "discarding expired incremental cache, starting cold",
						slog.String("snapshot", id), slog.Duration("age", age), slog.String("ttl", loadedConfig.Cache.TTL.String()))
				} else {
					unaffected.Restore(snapshot)
					logger.InfoContext(ctx, "loaded incremental cache", slog.String("snapshot", id), slog.Int("entries", len(snapshot)), slog.Duration("age", age))
				}
			}
		}
	}

	rebuild := func() {
		fs, err := compiler.LoadDir(watchSrcDir)
		if err != nil {
			logger.ErrorContext(ctx, "loading source tree", slog.Any("error", err))
			return
		}
		c, result, err := compiler.Run(ctx, compiler.Build{
			FS:          fs,
			Entries:     entries,
			Config:      loadedConfig,
			Logger:      logger,
			Cache:       unaffected,
			Table:       sharedTable,
			CacheGroups: splitChunksCacheGroups(loadedConfig),
		})
		if err != nil {
			logger.ErrorContext(ctx, "build failed", slog.Any("error", err))
			return
		}
		if err := writeAssets(outDir, result.Assets); err != nil {
			logger.ErrorContext(ctx, "writing assets", slog.Any("error", err))
			return
		}
		logDiagnostics(ctx, logger, result.Diagnostics)

		skipped := 0
		for _, decision := range c.CacheDecisions {
			if decision == cache.DecisionSkip {
				skipped++
			}
		}
		logger.InfoContext(ctx, "rebuild complete",
			slog.Int("modules", c.ModuleGraph.ModuleCount()),
			slog.Int("assets", len(result.Assets)),
			slog.Int("unaffected", skipped),
		)
		if introspectSrv != nil {
			introspectSrv.UpdateSnapshot(c.Snapshot())
		}
		if persistCache {
			if _, err := cachewire.Save(cachePath, unaffected.Snapshot()); err != nil {
				logger.ErrorContext(ctx, "persisting incremental cache", slog.Any("error", err))
			}
		}
	}

	rebuild()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchTree(watcher, watchSrcDir); err != nil {
		return fmt.Errorf("watching %s: %w", watchSrcDir, err)
	}

	var mu sync.Mutex
	var timer *time.Timer

	scheduleRebuild := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, rebuild)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.DebugContext(ctx, "filesystem event", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			scheduleRebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.ErrorContext(ctx, "filesystem watch error", slog.Any("error", err))
		}
	}
}

// addWatchTree registers root and every subdirectory under it with
// watcher: fsnotify watches directories, not trees, so each one needs an
// explicit Add.
func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
