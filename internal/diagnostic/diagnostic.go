// Package diagnostic implements the error taxonomy from SPEC_FULL.md §7:
// severities, stable short codes, optional source spans, and cause chains.
// Warnings never abort a compilation; errors mark it failed but let the
// remaining phases keep running so every discoverable problem is reported in
// one pass, mirroring the teacher's StageError wrapper generalized to a
// richer severity model.
package diagnostic

import (
	"errors"
	"fmt"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// SeverityInfo is informational only.
	SeverityInfo Severity = iota
	// SeverityWarning never aborts a compilation.
	SeverityWarning
	// SeverityError marks the compilation's final status as failed.
	SeverityError
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Span is an optional source location attached to a Diagnostic.
type Span struct {
	ModuleIdentifier string
	Start, End       int
	SourceText       string
}

// Diagnostic is a single reportable problem encountered during a
// compilation. It implements error so it can flow through normal Go error
// handling (errors.Is/As) while also carrying the richer metadata the
// compilation's diagnostics list needs.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     *Span
	Cause    error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
}

// Unwrap returns the underlying cause, if any.
func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// New creates a Diagnostic with no span or cause.
func New(severity Severity, code, message string) *Diagnostic {
	return &Diagnostic{Severity: severity, Code: code, Message: message}
}

// Wrap creates a Diagnostic that chains an underlying cause.
func Wrap(severity Severity, code, message string, cause error) *Diagnostic {
	return &Diagnostic{Severity: severity, Code: code, Message: message, Cause: cause}
}

// WithSpan attaches a source span and returns the same Diagnostic for
// chaining.
func (d *Diagnostic) WithSpan(span Span) *Diagnostic {
	d.Span = &span
	return d
}

// Bag accumulates diagnostics for a single compilation.
type Bag struct {
	items []*Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d *Diagnostic) {
	if d != nil {
		b.items = append(b.items, d)
	}
}

// Warnf appends a SeverityWarning diagnostic.
func (b *Bag) Warnf(code, format string, args ...any) {
	b.Add(New(SeverityWarning, code, fmt.Sprintf(format, args...)))
}

// Errorf appends a SeverityError diagnostic.
func (b *Bag) Errorf(code, format string, args ...any) {
	b.Add(New(SeverityError, code, fmt.Sprintf(format, args...)))
}

// All returns every diagnostic recorded so far, in recording order.
func (b *Bag) All() []*Diagnostic {
	return b.items
}

// HasErrors reports whether any SeverityError diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// PhaseError wraps a fatal error with the pipeline phase that produced it,
// grounded on the teacher's pipeline/core.StageError.
type PhaseError struct {
	Phase string
	Err   error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError creates a PhaseError.
func NewPhaseError(phase string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}

// Sentinel errors for chunk-graph/codegen fatal conditions (§7).
var (
	// ErrEntryCycle indicates a cycle among entries connected via dependOn.
	ErrEntryCycle = errors.New("cycle among entry dependOn relationships")
	// ErrModuleMissingFromGraph indicates an internal consistency failure:
	// a module reachable from the chunk graph build is absent from the
	// module graph.
	ErrModuleMissingFromGraph = errors.New("module missing from module graph")
	// ErrChunkNameCollision indicates two distinct chunk groups claim the
	// same chunk name.
	ErrChunkNameCollision = errors.New("chunk name collision")
	// ErrUnknownRuntimeGlobal indicates a codegen template referenced a
	// runtime global with no corresponding runtime-requirement flag.
	ErrUnknownRuntimeGlobal = errors.New("code generation referenced an unknown runtime global")
)
