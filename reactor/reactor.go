// Package reactor implements the single-threaded selector-driven
// scheduler from spec.md §4.1: one thread multiplexing fd readiness,
// timer expiration, and a task queue, plus the Executor abstraction from
// §2 (direct, threaded, reactor-bound).
package reactor

import (
	"fmt"
	"sync"
	"time"

	"github.com/xzero/reactorhttp/clock"
	"github.com/xzero/reactorhttp/logging"
	"github.com/xzero/reactorhttp/timer"
)

// maxWaitTimeout is the "ceiling of 4s" from spec.md §4.1 step 1, bounding
// how long a wait() call blocks even with no pending timers, so a reactor
// notices process-wide shutdown signals promptly.
const maxWaitTimeout = 4 * time.Second

// Task is unit of work queued onto the reactor loop.
type Task func()

// Handle is a cancellable registration — a timer or an fd interest.
// Cancellation is idempotent and safe to call after the registration has
// already fired (spec.md §5).
type Handle interface {
	Cancel()
}

type fdHandle struct {
	r      *Reactor
	fd     int
	mu     sync.Mutex
	active bool
}

func (h *fdHandle) Cancel() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	h.mu.Unlock()
	h.r.cancelInterest(h)
}

// Reactor multiplexes fd readiness, timers, and tasks onto a single
// goroutine (spec.md §5: "single-threaded cooperative per reactor
// instance"). All fields touched from run() are only ever touched by the
// goroutine that called Run/RunLoopOnce; cross-thread entry points
// (Execute, ExecuteAfter/At, ExecuteOnReadable/Writable) take mu.
type Reactor struct {
	mu sync.Mutex

	poller poller
	wake   *wakePipe
	wheel  *timer.Wheel
	clk    clock.Clock

	readers map[int]*interestEntry
	writers map[int]*interestEntry
	tasks   []Task

	preInvoke  func()
	postInvoke func()
	onError    func(error)
	logger     logging.Logger

	stopped bool
}

type interestEntry struct {
	task Task
	h    *fdHandle
}

// Option configures a Reactor at construction.
type Option func(*Reactor)

// WithClock overrides the reactor's time source (tests use this to
// control timer expiry deterministically).
func WithClock(c clock.Clock) Option { return func(r *Reactor) { r.clk = c } }

// WithErrorHandler installs the fatal-error hook for poller errors other
// than EINTR (spec.md §4.1: "other errors are fatal and reported to the
// error handler").
func WithErrorHandler(f func(error)) Option { return func(r *Reactor) { r.onError = f } }

// WithHooks installs the pre/post-invoke hooks spec.md §4.1 step 7 wraps
// every batch of callback dispatch in.
func WithHooks(pre, post func()) Option {
	return func(r *Reactor) {
		r.preInvoke = pre
		r.postInvoke = post
	}
}

// WithLogger attaches a Logger used to report recovered task panics.
func WithLogger(l logging.Logger) Option { return func(r *Reactor) { r.logger = l } }

// New constructs a Reactor. It fails only if the underlying kernel
// multiplex object (epoll instance, wake pipe) cannot be created —
// treated as a SystemError per spec.md §7.
func New(opts ...Option) (*Reactor, error) {
	r := &Reactor{
		clk:     clock.Default,
		readers: make(map[int]*interestEntry),
		writers: make(map[int]*interestEntry),
	}
	for _, o := range opts {
		o(r)
	}
	r.wheel = timer.New(r.clk)

	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	r.poller = p

	wp, err := newWakePipe()
	if err != nil {
		_ = p.close()
		return nil, err
	}
	r.wake = wp
	if err := r.poller.add(wp.readFD(), true, false); err != nil {
		_ = p.close()
		_ = wp.close()
		return nil, err
	}
	return r, nil
}

// Close releases the reactor's kernel resources. Run must have returned
// (or never started) before calling Close.
func (r *Reactor) Close() error {
	_ = r.wake.close()
	return r.poller.close()
}

// Execute enqueues task and wakes the loop. Thread-safe — spec.md §5
// lists it as a cross-thread entry point that takes the reactor's lock.
func (r *Reactor) Execute(task Task) {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
	r.wake.wake()
}

// ExecuteAfter schedules task to run after d elapses, returning a
// cancellable Handle.
func (r *Reactor) ExecuteAfter(d time.Duration, task Task) Handle {
	return r.ExecuteAt(r.clk.Now().Add(d), task)
}

// ExecuteAt schedules task to run at deadline, returning a cancellable
// Handle. Cancelling after the timer fires is a no-op (spec.md §5).
func (r *Reactor) ExecuteAt(deadline time.Time, task Task) Handle {
	r.mu.Lock()
	h := r.wheel.At(deadline, func() { r.invoke(task) }, nil)
	r.mu.Unlock()
	r.wake.wake()
	return h
}

// ExecuteOnReadable arms a one-shot readable interest on fd. After task
// fires, the registration is consumed; to keep watching, task must
// re-register (spec.md §4.1).
func (r *Reactor) ExecuteOnReadable(fd int, task Task) Handle {
	return r.register(r.readers, fd, task, true, false)
}

// ExecuteOnWritable arms a one-shot writable interest on fd.
func (r *Reactor) ExecuteOnWritable(fd int, task Task) Handle {
	return r.register(r.writers, fd, task, false, true)
}

func (r *Reactor) register(table map[int]*interestEntry, fd int, task Task, readable, writable bool) Handle {
	r.mu.Lock()
	h := &fdHandle{r: r, fd: fd, active: true}
	table[fd] = &interestEntry{task: task, h: h}
	_, wantRead := r.readers[fd]
	_, wantWrite := r.writers[fd]
	_ = r.poller.add(fd, wantRead, wantWrite)
	r.mu.Unlock()
	r.wake.wake()
	return h
}

// cancelInterest removes fd's current interest from whichever table owns
// the handle doing the cancelling. Both tables are checked because a
// single fd may carry independent read and write registrations. An
// entry registered by a different handle (h already fired and fd was
// registered again) is left in place.
func (r *Reactor) cancelInterest(h *fdHandle) {
	r.mu.Lock()
	fd := h.fd
	if e, ok := r.readers[fd]; ok && e.h == h {
		delete(r.readers, fd)
	}
	if e, ok := r.writers[fd]; ok && e.h == h {
		delete(r.writers, fd)
	}
	if _, stillReading := r.readers[fd]; !stillReading {
		if _, stillWriting := r.writers[fd]; !stillWriting {
			_ = r.poller.remove(fd)
		}
	}
	r.mu.Unlock()
}

// Stop marks the reactor for shutdown after the current iteration. Safe
// to call from any goroutine.
func (r *Reactor) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.wake.wake()
}

// Run blocks, calling RunLoopOnce until Stop is called.
func (r *Reactor) Run() error {
	for {
		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return nil
		}
		if err := r.RunLoopOnce(); err != nil {
			return err
		}
	}
}

// RunLoopOnce performs exactly one multiplex iteration per spec.md §4.1's
// seven-step algorithm.
func (r *Reactor) RunLoopOnce() error {
	// Step 1: under the lock, compute the wait timeout.
	r.mu.Lock()
	hasTasks := len(r.tasks) > 0
	deadline, hasTimer := r.wheel.NextDeadline()
	r.mu.Unlock()

	timeoutMs := computeTimeoutMs(hasTasks, hasTimer, deadline, r.clk.Now())

	// Step 2: release the lock (already released), block on the kernel
	// multiplex call. The wake-pipe's read end was registered at
	// construction and is never removed.
	ready, err := r.poller.wait(timeoutMs)
	if err != nil {
		if r.onError != nil {
			r.onError(err)
		}
		return err
	}

	// Step 3: drain the wake pipe if it is among the ready set.
	woke := false
	for _, ev := range ready {
		if ev.fd == r.wake.readFD() {
			woke = true
			break
		}
	}
	if woke {
		r.wake.drain()
	}

	// Step 4: collect expired timers, atomically removed from the list.
	fired := r.wheel.Expired(r.clk.Now())

	// Step 5: collect ready-fd handles, atomically removed from the
	// interest lists (one-shot semantics).
	var fdTasks []Task
	r.mu.Lock()
	for _, ev := range ready {
		if ev.fd == r.wake.readFD() {
			continue
		}
		if ev.readable {
			if e, ok := r.readers[ev.fd]; ok {
				fdTasks = append(fdTasks, e.task)
				delete(r.readers, ev.fd)
			}
		}
		if ev.writable {
			if e, ok := r.writers[ev.fd]; ok {
				fdTasks = append(fdTasks, e.task)
				delete(r.writers, ev.fd)
			}
		}
		if _, stillReading := r.readers[ev.fd]; !stillReading {
			if _, stillWriting := r.writers[ev.fd]; !stillWriting {
				_ = r.poller.remove(ev.fd)
			}
		}
	}

	// Step 6: swap out the task queue.
	queued := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	// Step 7: outside the lock, fire in order (timers, ready-fd, tasks).
	if r.preInvoke != nil {
		r.preInvoke()
	}
	for _, f := range fired {
		r.invoke(f)
	}
	for _, t := range fdTasks {
		r.invoke(t)
	}
	for _, t := range queued {
		r.invoke(t)
	}
	if r.postInvoke != nil {
		r.postInvoke()
	}
	return nil
}

// computeTimeoutMs implements spec.md §4.1 step 1's
// min(zero-if-tasks-nonempty, earliest-timer-deadline-minus-now, 4s)
// rule. This fixes the source's inverted empty-check noted in spec.md
// §9's open question: an empty timer list must NOT shorten the wait —
// only a present, non-empty timer list may.
func computeTimeoutMs(hasTasks, hasTimer bool, deadline, now time.Time) int {
	if hasTasks {
		return 0
	}
	wait := maxWaitTimeout
	if hasTimer {
		if d := deadline.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return int(wait / time.Millisecond)
}

// invoke is the "safe-call" wrapper from spec.md §4.1: a task's panic
// never propagates out of the loop; it is forwarded to onError instead.
func (r *Reactor) invoke(t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			err := panicError{rec}
			if r.onError != nil {
				r.onError(err)
			} else if r.logger != nil {
				r.logger.Errorf("reactorhttp/reactor", "recovered panic in reactor task: %v", rec)
			}
		}
	}()
	t()
}

type panicError struct{ v interface{} }

func (p panicError) Error() string { return fmt.Sprintf("reactor: task panicked: %v", p.v) }
