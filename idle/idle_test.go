package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xzero/reactorhttp/reactor"
)

// fakeScheduler records the single most-recently scheduled task/delay and
// lets the test fire it synchronously, without a real reactor loop.
type fakeScheduler struct {
	delay     time.Duration
	task      reactor.Task
	cancelled bool
	fireCount int
}

type fakeHandle struct{ s *fakeScheduler }

func (h *fakeHandle) Cancel() { h.s.cancelled = true }

func (s *fakeScheduler) ExecuteAfter(d time.Duration, task reactor.Task) reactor.Handle {
	s.delay = d
	s.task = task
	s.cancelled = false
	s.fireCount++
	return &fakeHandle{s: s}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestIdleTimeoutFiresAfterDurationElapses(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	sched := &fakeScheduler{}
	fired := false
	to := New(clk, sched, 10*time.Millisecond, func() { fired = true })

	to.Arm()
	require.NotNil(t, sched.task)

	clk.now = clk.now.Add(10 * time.Millisecond)
	sched.task()

	assert.True(t, fired)
	assert.True(t, to.Fired())
}

func TestIdleTimeoutFireSuppressedWhenElapsedLessThanDuration(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	sched := &fakeScheduler{}
	fired := false
	to := New(clk, sched, 10*time.Millisecond, func() { fired = true })

	to.Arm()
	// Simulate a late-firing callback that races a recent touch: only 4ms
	// has really elapsed, well under the 10ms duration.
	clk.now = clk.now.Add(4 * time.Millisecond)
	sched.task()

	assert.False(t, fired)
	assert.False(t, to.Fired())
	assert.Equal(t, 6*time.Millisecond, sched.delay)

	// Now let the rescheduled remainder actually elapse.
	clk.now = clk.now.Add(6 * time.Millisecond)
	sched.task()
	assert.True(t, fired)
}

func TestIdleTimeoutTouchReschedules(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	sched := &fakeScheduler{}
	fired := false
	to := New(clk, sched, 10*time.Millisecond, func() { fired = true })

	to.Arm()
	clk.now = clk.now.Add(5 * time.Millisecond)
	to.Touch()
	assert.True(t, sched.cancelled == false || sched.fireCount == 2)

	// The old deadline (t=10ms) should no longer fire the callback as the
	// real one — touch rescheduled a fresh task from t=5ms.
	clk.now = clk.now.Add(5 * time.Millisecond) // now at t=10ms, only 5ms since touch
	sched.task()
	assert.False(t, fired)

	clk.now = clk.now.Add(5 * time.Millisecond) // now at t=15ms, 10ms since touch
	sched.task()
	assert.True(t, fired)
}

func TestIdleTimeoutCancelSuppressesFire(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	sched := &fakeScheduler{}
	fired := false
	to := New(clk, sched, 10*time.Millisecond, func() { fired = true })

	to.Arm()
	to.Cancel()
	assert.True(t, sched.cancelled)

	clk.now = clk.now.Add(time.Hour)
	sched.task()
	assert.False(t, fired)
}

func TestIdleTimeoutCancelIsIdempotent(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	sched := &fakeScheduler{}
	to := New(clk, sched, 10*time.Millisecond, func() {})

	assert.NotPanics(t, func() {
		to.Cancel()
		to.Cancel()
		to.Arm()
		to.Cancel()
		to.Cancel()
	})
}
