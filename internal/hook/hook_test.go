package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesHook_RunsInStageThenRegistrationOrder(t *testing.T) {
	h := NewSeriesHook[[]string]()
	h.Tap(10, "second", func(_ context.Context, arg *[]string) error {
		*arg = append(*arg, "second")
		return nil
	})
	h.Tap(0, "first-a", func(_ context.Context, arg *[]string) error {
		*arg = append(*arg, "first-a")
		return nil
	})
	h.Tap(0, "first-b", func(_ context.Context, arg *[]string) error {
		*arg = append(*arg, "first-b")
		return nil
	})

	var out []string
	require.NoError(t, h.Call(context.Background(), &out))
	assert.Equal(t, []string{"first-a", "first-b", "second"}, out)
}

func TestSeriesHook_AbortsOnFirstError(t *testing.T) {
	h := NewSeriesHook[int]()
	var ran []int
	h.Tap(0, "a", func(_ context.Context, arg *int) error {
		ran = append(ran, 1)
		return errors.New("boom")
	})
	h.Tap(0, "b", func(_ context.Context, arg *int) error {
		ran = append(ran, 2)
		return nil
	})

	arg := 0
	err := h.Call(context.Background(), &arg)
	assert.Error(t, err)
	assert.Equal(t, []int{1}, ran)
}

func TestBailHook_FirstOkShortCircuits(t *testing.T) {
	h := NewBailHook[string, int]()
	h.Tap(0, "decline", func(_ context.Context, arg string) (int, bool, error) {
		return 0, false, nil
	})
	h.Tap(1, "accept", func(_ context.Context, arg string) (int, bool, error) {
		return 42, true, nil
	})
	h.Tap(2, "never-reached", func(_ context.Context, arg string) (int, bool, error) {
		t.Fatal("should not run after a bail")
		return -1, true, nil
	})

	result, ok, err := h.Call(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, result)
}

func TestBailHook_NoTapAcceptsReturnsNotOk(t *testing.T) {
	h := NewBailHook[string, int]()
	h.Tap(0, "decline", func(_ context.Context, arg string) (int, bool, error) {
		return 0, false, nil
	})
	_, ok, err := h.Call(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaterfallHook_ChainsPreviousOutputIntoNextInput(t *testing.T) {
	h := NewWaterfallHook[int]()
	h.Tap(0, "add-one", func(_ context.Context, arg int) (int, error) { return arg + 1, nil })
	h.Tap(1, "double", func(_ context.Context, arg int) (int, error) { return arg * 2, nil })

	out, err := h.Call(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 8, out)
}

func TestParallelHook_JoinsAllTapsAndReturnsFirstError(t *testing.T) {
	h := NewParallelHook[int]()
	h.Tap(0, "ok", func(_ context.Context, arg int) error { return nil })
	h.Tap(0, "fail", func(_ context.Context, arg int) error { return errors.New("bad") })

	err := h.Call(context.Background(), 1)
	assert.Error(t, err)
}

func TestParallelHook_NoErrorWhenAllTapsSucceed(t *testing.T) {
	h := NewParallelHook[int]()
	h.Tap(0, "a", func(_ context.Context, arg int) error { return nil })
	h.Tap(0, "b", func(_ context.Context, arg int) error { return nil })

	assert.NoError(t, h.Call(context.Background(), 1))
}
