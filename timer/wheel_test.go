package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestExpiredOrdersByDeadlineThenInsertion(t *testing.T) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	w := New(clk)

	var order []string
	w.At(clk.now.Add(2*time.Second), func() { order = append(order, "b1") }, nil)
	w.At(clk.now.Add(1*time.Second), func() { order = append(order, "a") }, nil)
	w.At(clk.now.Add(2*time.Second), func() { order = append(order, "b2") }, nil)

	fires := w.Expired(clk.now.Add(3 * time.Second))
	require.Len(t, fires, 3)
	for _, f := range fires {
		f()
	}
	assert.Equal(t, []string{"a", "b1", "b2"}, order)
	assert.Equal(t, 0, w.Len())
}

func TestCancelIsIdempotentAndSuppressesFire(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	w := New(clk)

	fired := false
	h := w.At(clk.now.Add(time.Second), func() { fired = true }, nil)
	h.Cancel()
	h.Cancel() // second cancel must be a no-op, not panic

	fires := w.Expired(clk.now.Add(2 * time.Second))
	for _, f := range fires {
		f()
	}
	assert.False(t, fired)
}

func TestCancelAfterFireIsNoop(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	w := New(clk)

	cancelCalls := 0
	h := w.At(clk.now.Add(time.Second), func() {}, func() { cancelCalls++ })
	fires := w.Expired(clk.now.Add(2 * time.Second))
	for _, f := range fires {
		f()
	}
	h.Cancel()
	assert.Equal(t, 0, cancelCalls)
}

func TestNextDeadlineEmptyIsFalse(t *testing.T) {
	w := New(&fakeClock{now: time.Unix(0, 0)})
	_, ok := w.NextDeadline()
	assert.False(t, ok)

	w.At(time.Unix(5, 0), func() {}, nil)
	d, ok := w.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, time.Unix(5, 0), d)
}
