package rangeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_SortedOrdersByStartThenEnd(t *testing.T) {
	s := New()
	s.Add(Range{10, 20})
	s.Add(Range{0, 5})
	s.Add(Range{0, 3})

	sorted := s.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, Range{0, 3}, sorted[0])
	assert.Equal(t, Range{0, 5}, sorted[1])
	assert.Equal(t, Range{10, 20}, sorted[2])
}

func TestSet_ValidateDetectsOverlap(t *testing.T) {
	s := New()
	s.Add(Range{0, 10})
	s.Add(Range{5, 15})

	a, b, ok := s.Validate()
	assert.True(t, ok)
	assert.Equal(t, Range{0, 10}, a)
	assert.Equal(t, Range{5, 15}, b)
}

func TestSet_ValidateAcceptsAdjacentNonOverlapping(t *testing.T) {
	s := New()
	s.Add(Range{0, 10})
	s.Add(Range{10, 20})

	_, _, ok := s.Validate()
	assert.False(t, ok)
}

func TestSet_CheckNoOverlapReturnsStructuredError(t *testing.T) {
	s := New()
	s.Add(Range{0, 10})
	s.Add(Range{3, 8})

	err := s.CheckNoOverlap()
	require.Error(t, err)
	var overlapErr *ErrOverlap
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, Range{0, 10}, overlapErr.A)
}

func TestRange_Overlaps(t *testing.T) {
	assert.True(t, Range{0, 10}.Overlaps(Range{5, 15}))
	assert.False(t, Range{0, 10}.Overlaps(Range{10, 20}))
	assert.False(t, Range{0, 10}.Overlaps(Range{20, 30}))
}
