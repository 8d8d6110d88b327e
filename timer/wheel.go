// Package timer implements the scheduler's timer list from spec.md §3 and
// §4.1: a sorted list of (deadline, fire, cancel) entries, with O(n) but
// lock-safe cancellation, and equal-deadline entries firing in insertion
// order (§5).
package timer

import (
	"sync"
	"time"

	"github.com/xzero/reactorhttp/clock"
)

// Callback runs when a timer fires or is cancelled before firing.
type Callback func()

// entry is one scheduled timer. seq breaks ties between equal deadlines
// so FIFO order among simultaneous expirations is preserved, per spec.md
// §5 ("Timers with equal deadlines fire in insertion order").
type entry struct {
	deadline time.Time
	seq      uint64
	fire     Callback
	cancel   Callback
	fired    bool
	cancelled bool
}

// Handle is a cancellable reference to a scheduled timer. Cancellation is
// idempotent and safe to call after the timer has already fired (it is
// then a no-op), per spec.md §5.
type Handle struct {
	w *Wheel
	e *entry
}

// Cancel prevents e.fire from ever running, if it has not already. A
// second Cancel call, or a Cancel after the timer fired, is a no-op.
func (h Handle) Cancel() {
	if h.w == nil {
		return
	}
	h.w.cancel(h.e)
}

// Wheel is a sorted list of pending timers, guarded by a single mutex per
// reactor (spec.md §5). It does not run its own goroutine; the owning
// Reactor calls NextDeadline/Expired each iteration.
type Wheel struct {
	mu      sync.Mutex
	entries []*entry
	nextSeq uint64
	clk     clock.Clock
}

// New returns an empty Wheel using clk as its time source.
func New(clk clock.Clock) *Wheel {
	if clk == nil {
		clk = clock.Default
	}
	return &Wheel{clk: clk}
}

// At schedules fire to run at deadline. cancel, if non-nil, runs
// synchronously inside Cancel (used to release resources eagerly rather
// than waiting for the timer to be swept).
func (w *Wheel) At(deadline time.Time, fire Callback, cancel Callback) Handle {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextSeq++
	e := &entry{deadline: deadline, seq: w.nextSeq, fire: fire, cancel: cancel}

	// Insertion sort keeps entries ascending by deadline; timer lists in
	// practice are short relative to fd/task volume, so O(n) insert is
	// the same cost class as the O(n) cancellation spec.md accepts.
	i := len(w.entries)
	w.entries = append(w.entries, e)
	for i > 0 && less(e, w.entries[i-1]) {
		w.entries[i] = w.entries[i-1]
		i--
	}
	w.entries[i] = e

	return Handle{w: w, e: e}
}

// After schedules fire to run after d has elapsed.
func (w *Wheel) After(d time.Duration, fire Callback, cancel Callback) Handle {
	return w.At(w.clk.Now().Add(d), fire, cancel)
}

func less(a, b *entry) bool {
	if a.deadline.Equal(b.deadline) {
		return a.seq < b.seq
	}
	return a.deadline.Before(b.deadline)
}

func (w *Wheel) cancel(e *entry) {
	w.mu.Lock()
	already := e.cancelled || e.fired
	e.cancelled = true
	w.mu.Unlock()
	if already {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
}

// Expired atomically removes every entry whose deadline has passed (≤
// now) from the sorted list and returns their fire callbacks, in
// ascending-deadline (then insertion) order, per the reactor algorithm
// §4.1 step 4. Cancelled entries are dropped silently.
func (w *Wheel) Expired(now time.Time) []Callback {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := 0
	var out []Callback
	for i < len(w.entries) && !w.entries[i].deadline.After(now) {
		e := w.entries[i]
		if !e.cancelled {
			e.fired = true
			out = append(out, e.fire)
		}
		i++
	}
	if i > 0 {
		remaining := len(w.entries) - i
		copy(w.entries, w.entries[i:])
		w.entries = w.entries[:remaining]
	}
	return out
}

// NextDeadline reports the earliest pending deadline and whether any
// timer is pending at all. Used by the reactor to compute its wait
// timeout (§4.1 step 1).
func (w *Wheel) NextDeadline() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) == 0 {
		return time.Time{}, false
	}
	return w.entries[0].deadline, true
}

// Len reports the number of still-pending (not yet swept) timers,
// including cancelled-but-not-yet-swept ones.
func (w *Wheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
