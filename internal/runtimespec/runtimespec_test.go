package runtimespec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_ContentEqualityIgnoresOrderAndDuplicates(t *testing.T) {
	a := New("main", "worker")
	b := New("worker", "main", "main")
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, []string{"main", "worker"}, a.Names())
}

func TestNew_EmptyIsEmpty(t *testing.T) {
	var s Spec
	assert.True(t, s.IsEmpty())
	assert.Equal(t, New().Key(), s.Key())
}

func TestSpec_Contains(t *testing.T) {
	s := New("main", "worker")
	assert.True(t, s.Contains("main"))
	assert.False(t, s.Contains("other"))
}

func TestSpec_Union(t *testing.T) {
	a := New("main")
	b := New("worker")
	u := a.Union(b)
	assert.Equal(t, []string{"main", "worker"}, u.Names())
}

func TestSpec_UsableAsMapKey(t *testing.T) {
	m := map[string]int{}
	m[New("a", "b").Key()] = 1
	m[New("b", "a").Key()] = 2
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[New("a", "b").Key()])
}
