package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wbcore/internal/compiler"
	"github.com/jmylchreest/wbcore/internal/diagnostic"
	"github.com/jmylchreest/wbcore/internal/modulegraph"
	"github.com/jmylchreest/wbcore/internal/render"
)

var (
	buildSrcDir  string
	buildEntries []string
	buildOutDir  string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run a single build and write the emitted assets to disk",
	Long: `build loads every file under --src into an in-memory snapshot, runs
it through one Compilation end to end, and writes the resulting assets
to --out (defaulting to the configured output.dir).

Each --entry flag takes a "name=./relative/path" pair, relative to
--src, e.g. --entry main=./index.js.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildSrcDir, "src", ".", "source directory to load")
	buildCmd.Flags().StringArrayVar(&buildEntries, "entry", nil, `entry point as "name=./path", repeatable`)
	buildCmd.Flags().StringVar(&buildOutDir, "out", "", "output directory, overrides output.dir from config")
}

// parseEntries turns the repeated --entry flags into EntryRequests, each
// Import path resolved into the "/"-rooted shape compiler.LoadDir keys
// its MemFS by.
func parseEntries(specs []string) ([]modulegraph.EntryRequest, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --entry is required")
	}
	entries := make([]modulegraph.EntryRequest, 0, len(specs))
	for _, spec := range specs {
		name, rel, ok := splitNameValue(spec)
		if !ok {
			return nil, fmt.Errorf("invalid --entry %q, expected name=./path", spec)
		}
		rel = filepath.ToSlash(rel)
		if rel == "" {
			return nil, fmt.Errorf("invalid --entry %q: empty path", spec)
		}
		if rel[0] != '/' {
			rel = "/" + rel
		}
		entries = append(entries, modulegraph.EntryRequest{Name: name, Import: []string{rel}})
	}
	return entries, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	entries, err := parseEntries(buildEntries)
	if err != nil {
		return err
	}

	fs, err := compiler.LoadDir(buildSrcDir)
	if err != nil {
		return fmt.Errorf("loading source tree: %w", err)
	}

	outDir := buildOutDir
	if outDir == "" {
		outDir = loadedConfig.Output.Dir
	}

	c, result, err := compiler.Run(ctx, compiler.Build{
		FS:          fs,
		Entries:     entries,
		Config:      loadedConfig,
		Logger:      logger,
		CacheGroups: splitChunksCacheGroups(loadedConfig),
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := writeAssets(outDir, result.Assets); err != nil {
		return fmt.Errorf("writing assets: %w", err)
	}

	logDiagnostics(ctx, logger, result.Diagnostics)
	logger.InfoContext(ctx, "build complete",
		slog.Int("modules", c.ModuleGraph.ModuleCount()),
		slog.Int("assets", len(result.Assets)),
		slog.String("out", outDir),
	)

	if errCount := countSeverity(result.Diagnostics, diagnostic.SeverityError); errCount > 0 {
		return fmt.Errorf("build produced %d error diagnostic(s)", errCount)
	}
	return nil
}

// writeAssets writes every rendered asset's Source to dir/Filename,
// creating any nested directory a filename template introduces (e.g.
// "chunks/[name].[contenthash:8].js").
func writeAssets(dir string, assets map[string]render.Asset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	for _, asset := range assets {
		target := filepath.Join(dir, filepath.FromSlash(asset.Filename))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", asset.Filename, err)
		}
		if err := os.WriteFile(target, asset.Source, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", asset.Filename, err)
		}
	}
	return nil
}

func logDiagnostics(ctx context.Context, logger *slog.Logger, diags []*diagnostic.Diagnostic) {
	for _, d := range diags {
		attrs := []slog.Attr{slog.String("code", d.Code)}
		if d.Span != nil {
			attrs = append(attrs, slog.String("module", d.Span.ModuleIdentifier))
		}
		level := slog.LevelWarn
		if d.Severity == diagnostic.SeverityError {
			level = slog.LevelError
		}
		logger.LogAttrs(ctx, level, d.Message, attrs...)
	}
}

func countSeverity(diags []*diagnostic.Diagnostic, sev diagnostic.Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
