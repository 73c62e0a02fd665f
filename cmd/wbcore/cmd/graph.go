package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wbcore/internal/compiler"
	"github.com/jmylchreest/wbcore/internal/introspect"
)

var (
	graphSrcDir  string
	graphEntries []string
	graphServe   bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build once and inspect the resulting module/chunk graph",
	Long: `graph runs one build and, by default, prints the module graph, chunk
graph and asset list as JSON to stdout.

--serve instead starts the read-only introspection HTTP server over the
same snapshot and blocks until interrupted, serving GET /graph/modules,
GET /graph/chunks and GET /assets.`,
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVar(&graphSrcDir, "src", ".", "source directory to load")
	graphCmd.Flags().StringArrayVar(&graphEntries, "entry", nil, `entry point as "name=./path", repeatable`)
	graphCmd.Flags().BoolVar(&graphServe, "serve", false, "serve the snapshot over the introspection HTTP server instead of printing it")
}

func runGraph(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	entries, err := parseEntries(graphEntries)
	if err != nil {
		return err
	}

	fs, err := compiler.LoadDir(graphSrcDir)
	if err != nil {
		return fmt.Errorf("loading source tree: %w", err)
	}

	c, result, err := compiler.Run(ctx, compiler.Build{
		FS:      fs,
		Entries: entries,
		Config:  loadedConfig,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	logDiagnostics(ctx, logger, result.Diagnostics)

	snap := c.Snapshot()

	if !graphServe {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		return nil
	}

	srv := introspect.NewServer(introspect.ServerConfig{
		Host: loadedConfig.Introspect.Host,
		Port: loadedConfig.Introspect.Port,
	}, logger)
	srv.UpdateSnapshot(snap)

	logger.InfoContext(ctx, "serving introspection snapshot", slog.String("address", loadedConfig.Introspect.IntrospectAddress()))
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("introspection server: %w", err)
	}
	return nil
}
