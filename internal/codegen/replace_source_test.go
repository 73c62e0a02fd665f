package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceSource_SingleReplacement(t *testing.T) {
	rs := NewReplaceSource([]byte("const x = require(\"a\");"))
	rs.Replace(10, 23, "__w_require__(\"a\")")
	out, err := rs.Render()
	require.NoError(t, err)
	assert.Equal(t, "const x = __w_require__(\"a\");", out)
}

func TestReplaceSource_MultipleNonOverlappingInAnyInputOrder(t *testing.T) {
	rs := NewReplaceSource([]byte("AAAABBBBCCCC"))
	rs.Replace(8, 12, "cccc")
	rs.Replace(0, 4, "aaaa")
	out, err := rs.Render()
	require.NoError(t, err)
	assert.Equal(t, "aaaaBBBBcccc", out)
}

func TestReplaceSource_NoReplacementsReturnsOriginal(t *testing.T) {
	rs := NewReplaceSource([]byte("untouched"))
	out, err := rs.Render()
	require.NoError(t, err)
	assert.Equal(t, "untouched", out)
}

func TestReplaceSource_OverlappingReplacementsError(t *testing.T) {
	rs := NewReplaceSource([]byte("0123456789"))
	rs.Replace(0, 5, "x")
	rs.Replace(3, 8, "y")
	_, err := rs.Render()
	assert.Error(t, err)
}

func TestReplaceSource_AdjacentReplacementsDoNotError(t *testing.T) {
	rs := NewReplaceSource([]byte("0123456789"))
	rs.Replace(0, 5, "x")
	rs.Replace(5, 10, "y")
	out, err := rs.Render()
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}
