// Package hook implements the plugin extension-point system (spec.md
// §4.8): named hooks invoked at fixed points in the pipeline, each with
// a typed argument and a fixed tap-ordering flavor. Taps may declare a
// stage (lower runs first); registration order breaks ties within a
// stage, grounded on the teacher's append-only RegisterStage idiom
// (pipeline/core/factory.go) generalized to carry an explicit stage
// number, since this pipeline needs plugins from different sources to
// interleave in a well-defined order rather than simply append.
package hook

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// tap is one registered handler, tagged with its ordering stage and a
// monotonic sequence number that breaks ties in registration order.
type tap[F any] struct {
	stage int
	seq   int
	name  string
	fn    F
}

func sortTaps[F any](taps []tap[F]) []tap[F] {
	ordered := append([]tap[F](nil), taps...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].stage != ordered[j].stage {
			return ordered[i].stage < ordered[j].stage
		}
		return ordered[i].seq < ordered[j].seq
	})
	return ordered
}

// SeriesFunc mutates arg in place; a non-nil error aborts the series.
type SeriesFunc[Arg any] func(ctx context.Context, arg *Arg) error

// SeriesHook runs every tap in (stage, registration) order, each free to
// mutate the shared argument; the first error aborts the remaining taps
// (spec.md §4.8 "Series... any error aborts").
type SeriesHook[Arg any] struct {
	taps []tap[SeriesFunc[Arg]]
	seq  int
}

// NewSeriesHook returns an empty SeriesHook.
func NewSeriesHook[Arg any]() *SeriesHook[Arg] { return &SeriesHook[Arg]{} }

// Tap registers fn at stage, under name (used only for diagnostics).
func (h *SeriesHook[Arg]) Tap(stage int, name string, fn SeriesFunc[Arg]) {
	h.taps = append(h.taps, tap[SeriesFunc[Arg]]{stage: stage, seq: h.seq, name: name, fn: fn})
	h.seq++
}

// Call runs every tap over arg in order, stopping at the first error.
func (h *SeriesHook[Arg]) Call(ctx context.Context, arg *Arg) error {
	for _, t := range sortTaps(h.taps) {
		if err := t.fn(ctx, arg); err != nil {
			return err
		}
	}
	return nil
}

// BailFunc inspects arg and either declines (ok=false) or produces a
// result that short-circuits the remaining taps.
type BailFunc[Arg, Result any] func(ctx context.Context, arg Arg) (result Result, ok bool, err error)

// BailHook runs taps in order; the first to return ok=true short-circuits
// with its result (spec.md §4.8 "Bail... first tap returning non-null
// short-circuits").
type BailHook[Arg, Result any] struct {
	taps []tap[BailFunc[Arg, Result]]
	seq  int
}

// NewBailHook returns an empty BailHook.
func NewBailHook[Arg, Result any]() *BailHook[Arg, Result] { return &BailHook[Arg, Result]{} }

// Tap registers fn at stage, under name.
func (h *BailHook[Arg, Result]) Tap(stage int, name string, fn BailFunc[Arg, Result]) {
	h.taps = append(h.taps, tap[BailFunc[Arg, Result]]{stage: stage, seq: h.seq, name: name, fn: fn})
	h.seq++
}

// Call runs taps in order until one bails (ok=true) or errors; if none
// do, it returns the zero Result with ok=false.
func (h *BailHook[Arg, Result]) Call(ctx context.Context, arg Arg) (Result, bool, error) {
	for _, t := range sortTaps(h.taps) {
		result, ok, err := t.fn(ctx, arg)
		if err != nil {
			var zero Result
			return zero, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	var zero Result
	return zero, false, nil
}

// WaterfallFunc receives the previous tap's output (or the original
// argument, for the first tap) and returns the value the next tap sees.
type WaterfallFunc[Arg any] func(ctx context.Context, arg Arg) (Arg, error)

// WaterfallHook pipes its argument through every tap in order, each
// receiving the previous tap's return value (spec.md §4.8 "Waterfall...
// each tap receives the previous tap's return value").
type WaterfallHook[Arg any] struct {
	taps []tap[WaterfallFunc[Arg]]
	seq  int
}

// NewWaterfallHook returns an empty WaterfallHook.
func NewWaterfallHook[Arg any]() *WaterfallHook[Arg] { return &WaterfallHook[Arg]{} }

// Tap registers fn at stage, under name.
func (h *WaterfallHook[Arg]) Tap(stage int, name string, fn WaterfallFunc[Arg]) {
	h.taps = append(h.taps, tap[WaterfallFunc[Arg]]{stage: stage, seq: h.seq, name: name, fn: fn})
	h.seq++
}

// Call threads arg through every tap in order, returning the final value.
func (h *WaterfallHook[Arg]) Call(ctx context.Context, arg Arg) (Arg, error) {
	cur := arg
	for _, t := range sortTaps(h.taps) {
		next, err := t.fn(ctx, cur)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	return cur, nil
}

// ParallelFunc runs concurrently with every other tap on the same call.
type ParallelFunc[Arg any] func(ctx context.Context, arg Arg) error

// ParallelHook runs every tap concurrently against the same read-only
// argument and joins on completion (spec.md §4.8 "Parallel... taps run
// concurrently; completion is joined"); the first tap error cancels the
// shared context for the others.
type ParallelHook[Arg any] struct {
	taps []tap[ParallelFunc[Arg]]
	seq  int
}

// NewParallelHook returns an empty ParallelHook.
func NewParallelHook[Arg any]() *ParallelHook[Arg] { return &ParallelHook[Arg]{} }

// Tap registers fn, under name. Stage is accepted for API symmetry with
// the other hook flavors but has no ordering effect here, since taps run
// concurrently rather than in sequence.
func (h *ParallelHook[Arg]) Tap(stage int, name string, fn ParallelFunc[Arg]) {
	h.taps = append(h.taps, tap[ParallelFunc[Arg]]{stage: stage, seq: h.seq, name: name, fn: fn})
	h.seq++
}

// Call runs every tap concurrently, returning the first error (if any)
// once every tap has completed or the group has been canceled.
func (h *ParallelHook[Arg]) Call(ctx context.Context, arg Arg) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range sortTaps(h.taps) {
		fn := t.fn
		g.Go(func() error { return fn(gctx, arg) })
	}
	return g.Wait()
}
