package reactor

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestExecuteRunsOnLoop(t *testing.T) {
	r := newTestReactor(t)
	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	r.Execute(func() { ran = true; wg.Done() })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	for i := 0; i < 10; i++ {
		if err := r.RunLoopOnce(); err != nil {
			t.Fatal(err)
		}
		select {
		case <-done:
			assert.True(t, ran)
			return
		default:
		}
	}
	t.Fatal("task never ran")
}

func TestExecuteOnReadableFiresOnce(t *testing.T) {
	r := newTestReactor(t)
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	fires := 0
	r.ExecuteOnReadable(int(pr.Fd()), func() { fires++ })

	_, _ = pw.Write([]byte("x"))
	require.NoError(t, r.RunLoopOnce())
	assert.Equal(t, 1, fires)

	// Without re-registering, a second byte must not trigger another fire.
	_, _ = pw.Write([]byte("y"))
	done := make(chan struct{})
	go func() {
		_ = r.RunLoopOnce()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	assert.Equal(t, 1, fires)
}

func TestCancelPreventsTimerFire(t *testing.T) {
	r := newTestReactor(t)
	fired := false
	h := r.ExecuteAfter(50*time.Millisecond, func() { fired = true })
	h.Cancel()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := r.RunLoopOnce(); err != nil {
			t.Fatal(err)
		}
	}
	assert.False(t, fired)
}

func TestComputeTimeoutMsEmptyTimerDoesNotShortenWait(t *testing.T) {
	now := time.Now()
	// No tasks, no timers: must use the 4s ceiling, not zero — this is
	// the inverted-empty-check bug spec.md §9 calls out.
	ms := computeTimeoutMs(false, false, time.Time{}, now)
	assert.Equal(t, int(maxWaitTimeout/time.Millisecond), ms)

	ms = computeTimeoutMs(false, true, now.Add(10*time.Millisecond), now)
	assert.LessOrEqual(t, ms, 10)

	ms = computeTimeoutMs(true, true, now.Add(time.Hour), now)
	assert.Equal(t, 0, ms)
}
