// Package loader implements the loader chain pipeline (spec.md §4.2):
// pitching phase left-to-right with early short-circuit, a read phase, and
// a normal phase right-to-left over an ordered list of LoaderItems.
package loader

import (
	"context"
	"fmt"
)

// ResourceData identifies the resource a loader chain is running against.
type ResourceData struct {
	Resource string // full resource, e.g. "/src/a.css"
	Query    string
	Fragment string
	Layer    string
}

// RequestChain exposes where a loader sits within its chain: the names of
// the loaders to its right ("remaining"), the names of the loaders to its
// left ("previous"; the output so far is not part of this — Normal receives
// it as its input argument), and the loader's own identifier ("current").
type RequestChain struct {
	Remaining []string
	Previous  []string
	Current   string
}

// LoaderContext is what a LoaderItem's Pitch/Normal function receives.
// Fields mutate in place across the chain's Run call.
type LoaderContext struct {
	Context  context.Context
	Resource ResourceData
	Chain    RequestChain
	Hot      bool
	Data     map[string]any

	emitFile       func(filename string, content []byte)
	addFileDep     func(path string)
	addContextDep  func(path string)
	addMissingDep  func(path string)
	sourceMapChain []byte
}

// EmitFile registers an additional asset produced as a side effect of this
// loader (e.g. css-loader extracting a referenced image). Chain.Run returns
// emitted files as EmittedAsset values; the module graph builder does not
// register them as assets of the owning module.
func (c *LoaderContext) EmitFile(filename string, content []byte) {
	if c.emitFile != nil {
		c.emitFile(filename, content)
	}
}

// AddFileDependency records a file the loader read besides the primary
// resource, for watch mode / the incremental cache to invalidate on.
// Chain.Run installs no recorder for this, AddContextDependency or
// AddMissingDependency, so under Run these three calls have no effect.
func (c *LoaderContext) AddFileDependency(path string) {
	if c.addFileDep != nil {
		c.addFileDep(path)
	}
}

// AddContextDependency records a directory the loader enumerated.
func (c *LoaderContext) AddContextDependency(path string) {
	if c.addContextDep != nil {
		c.addContextDep(path)
	}
}

// AddMissingDependency records a path the loader probed but which did not
// exist, so watch mode can trigger a rebuild once it's created.
func (c *LoaderContext) AddMissingDependency(path string) {
	if c.addMissingDep != nil {
		c.addMissingDep(path)
	}
}

// PitchResult is what a loader's Pitch function may return to short-
// circuit the remaining pitches (spec.md §4.2 step 1).
type PitchResult struct {
	// Short is true when this loader wants to supply the module's
	// source directly, skipping the read phase and every pitch/normal
	// pair to its right.
	Short  bool
	Output []byte
}

// LoaderItem is one entry in a loader chain.
type LoaderItem struct {
	Name string
	// Pitch runs left-to-right. Returning a PitchResult with Short=true
	// aborts the remaining pitch phase and jumps straight to the normal
	// phase of the loaders strictly to the left of this one.
	Pitch func(ctx *LoaderContext) (PitchResult, error)
	// Normal runs right-to-left, each receiving the previous loader's
	// (i.e. the one further right, or the raw read) output.
	Normal func(ctx *LoaderContext, input []byte) ([]byte, error)
}

// EmittedAsset is a file a loader produced as a side effect.
type EmittedAsset struct {
	Filename string
	Content  []byte
}

// Chain is an ordered list of LoaderItems attached to one resource.
type Chain struct {
	Items []LoaderItem
}

// ReadFunc reads the raw resource bytes (the read phase, spec.md §4.2
// step 2). Supplied by the caller so Chain never touches a FileSystem
// type directly — keeping internal/loader free of any dependency on
// internal/modulegraph's collaborator interfaces.
type ReadFunc func(ctx context.Context, resource ResourceData) ([]byte, error)

// Run executes the full pitch/read/normal pipeline (spec.md §4.2,
// exercised end-to-end by scenario S5): pitching left to right with
// early short-circuit, then (if no pitch short-circuited) a read, then
// normal phase right to left over the loaders that weren't skipped.
func (c *Chain) Run(ctx context.Context, resource ResourceData, read ReadFunc) ([]byte, []EmittedAsset, error) {
	var emitted []EmittedAsset
	lctx := &LoaderContext{
		Context:  ctx,
		Resource: resource,
		Data:     make(map[string]any),
		emitFile: func(filename string, content []byte) {
			emitted = append(emitted, EmittedAsset{Filename: filename, Content: content})
		},
	}

	n := len(c.Items)
	pitchedIndex := -1 // index of the loader whose pitch short-circuited, or -1
	var pitchOutput []byte

	for i := 0; i < n; i++ {
		lctx.Chain = RequestChain{
			Current:   c.Items[i].Name,
			Remaining: namesOf(c.Items[i+1:]),
			Previous:  namesOf(c.Items[:i]),
		}
		if c.Items[i].Pitch == nil {
			continue
		}
		res, err := c.Items[i].Pitch(lctx)
		if err != nil {
			return nil, nil, fmt.Errorf("loader %q pitch: %w", c.Items[i].Name, err)
		}
		if res.Short {
			pitchedIndex = i
			pitchOutput = res.Output
			break
		}
	}

	var output []byte
	var normalStart int // first index (inclusive) whose Normal still runs

	if pitchedIndex >= 0 {
		output = pitchOutput
		normalStart = pitchedIndex
	} else {
		raw, err := read(ctx, resource)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %q: %w", resource.Resource, err)
		}
		output = raw
		normalStart = n
	}

	for i := normalStart - 1; i >= 0; i-- {
		if c.Items[i].Normal == nil {
			continue
		}
		lctx.Chain = RequestChain{
			Current:   c.Items[i].Name,
			Remaining: namesOf(c.Items[i+1:]),
			Previous:  namesOf(c.Items[:i]),
		}
		var err error
		output, err = c.Items[i].Normal(lctx, output)
		if err != nil {
			return nil, nil, fmt.Errorf("loader %q normal: %w", c.Items[i].Name, err)
		}
	}

	return output, emitted, nil
}

func namesOf(items []LoaderItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}
