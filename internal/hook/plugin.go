package hook

import (
	"log/slog"

	"github.com/jmylchreest/wbcore/internal/diagnostic"
)

// PluginContext is what a Plugin's Apply receives: the Compilation's
// HookRegistry to tap into, a logger scoped to the plugin, and the
// Compilation's diagnostic Bag, so a tap can report a non-fatal finding
// (e.g. a detected circular dependency) the same way the core phases do,
// rather than only being able to log it.
type PluginContext struct {
	Hooks       *HookRegistry
	Logger      *slog.Logger
	Diagnostics *diagnostic.Bag
}

// Plugin is the extension interface every compiler plugin implements.
// Apply registers taps on whichever hooks the plugin cares about; the
// core never calls a plugin outside of the named hook points (spec.md
// §4.8 "The core MUST NOT call plugins outside of these named points").
type Plugin interface {
	Apply(ctx *PluginContext)
}

// Apply runs Apply on every plugin in order against the same registry,
// the usual way a Compilation wires its configured plugin list in.
func Apply(hooks *HookRegistry, logger *slog.Logger, diagnostics *diagnostic.Bag, plugins ...Plugin) {
	for _, p := range plugins {
		p.Apply(&PluginContext{Hooks: hooks, Logger: logger, Diagnostics: diagnostics})
	}
}
