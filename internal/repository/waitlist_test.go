package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlist_FIFO(t *testing.T) {
	// Given: three queued players
	waitlist := NewWaitlist()
	waitlist.Push("a")
	waitlist.Push("b")
	waitlist.Push("c")

	// Then: they pop in arrival order
	for _, want := range []string{"a", "b", "c"} {
		got, ok := waitlist.PopFront()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := waitlist.PopFront()
	assert.False(t, ok)
}

func TestWaitlist_PushIsIdempotent(t *testing.T) {
	// Given: the same handle pushed twice
	waitlist := NewWaitlist()
	waitlist.Push("a")
	waitlist.Push("a")

	// Then: it is queued once
	assert.Equal(t, 1, waitlist.Len())
}

func TestWaitlist_PushFront(t *testing.T) {
	// Given: a queue of two
	waitlist := NewWaitlist()
	waitlist.Push("b")
	waitlist.Push("c")

	// When: a handle returns to the head
	waitlist.PushFront("a")

	// Then: it pops first
	got, ok := waitlist.PopFront()
	require.True(t, ok)
	assert.Equal(t, "a", got)
}

func TestWaitlist_Remove(t *testing.T) {
	waitlist := NewWaitlist()
	waitlist.Push("a")
	waitlist.Push("b")
	waitlist.Push("c")

	waitlist.Remove("b")

	assert.False(t, waitlist.Contains("b"))
	assert.Equal(t, 2, waitlist.Len())

	// Removing an absent handle is a no-op.
	waitlist.Remove("missing")
	assert.Equal(t, 2, waitlist.Len())
}
