package diagnostic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostic_Error(t *testing.T) {
	d := New(SeverityWarning, "W001", "unused export")
	assert.Equal(t, "[warn] W001: unused export", d.Error())
}

func TestDiagnostic_ErrorWithoutCode(t *testing.T) {
	d := New(SeverityInfo, "", "starting build")
	assert.Equal(t, "[info] starting build", d.Error())
}

func TestDiagnostic_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	d := Wrap(SeverityError, "E010", "loader failed", cause)
	assert.ErrorIs(t, d, cause)
	assert.Same(t, cause, d.Unwrap())
}

func TestDiagnostic_WithSpan(t *testing.T) {
	d := New(SeverityError, "E020", "parse error").WithSpan(Span{
		ModuleIdentifier: "/src/a.js",
		Start:            10,
		End:              14,
	})
	assert.Equal(t, "/src/a.js", d.Span.ModuleIdentifier)
	assert.Equal(t, 10, d.Span.Start)
}

func TestBag_HasErrors(t *testing.T) {
	var b Bag
	b.Warnf("W001", "unused export %s", "foo")
	assert.False(t, b.HasErrors())

	b.Errorf("E001", "cannot resolve %q", "./missing")
	assert.True(t, b.HasErrors())
	assert.Len(t, b.All(), 2)
}

func TestBag_AddNilIsNoop(t *testing.T) {
	var b Bag
	b.Add(nil)
	assert.Empty(t, b.All())
}

func TestPhaseError(t *testing.T) {
	cause := errors.New("dangling connection")
	err := NewPhaseError("chunk-graph", cause)
	assert.Equal(t, "phase chunk-graph: dangling connection", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSentinelErrors_AreDistinguishable(t *testing.T) {
	wrapped := NewPhaseError("chunk-graph", ErrEntryCycle)
	assert.ErrorIs(t, wrapped, ErrEntryCycle)
	assert.NotErrorIs(t, wrapped, ErrChunkNameCollision)
}
