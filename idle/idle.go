// Package idle implements the IdleTimeout handle from spec.md §3: a
// (clock, scheduler, duration, on-fire) state machine with three states
// — inactive, armed(deadline), fired — owned by an Endpoint and cancelled
// on close.
package idle

import (
	"sync"
	"time"

	"github.com/xzero/reactorhttp/clock"
	"github.com/xzero/reactorhttp/reactor"
)

type state int

const (
	stateInactive state = iota
	stateArmed
	stateFired
)

// Scheduler is the subset of Reactor's API IdleTimeout needs — kept as an
// interface so tests can supply a fake without constructing a real
// reactor/poller.
type Scheduler interface {
	ExecuteAfter(d time.Duration, task reactor.Task) reactor.Handle
}

// Timeout is the IdleTimeout handle. The zero value is not usable; build
// one with New.
type Timeout struct {
	mu        sync.Mutex
	state     state
	clk       clock.Clock
	scheduler Scheduler
	duration  time.Duration
	onFire    func()
	lastTouch time.Time
	handle    reactor.Handle
}

// New builds an inactive Timeout. Call Arm to start it.
func New(clk clock.Clock, scheduler Scheduler, duration time.Duration, onFire func()) *Timeout {
	if clk == nil {
		clk = clock.Default
	}
	return &Timeout{clk: clk, scheduler: scheduler, duration: duration, onFire: onFire}
}

// Arm transitions inactive → armed, scheduling the first expiry check.
// Arming an already-armed Timeout is a no-op.
func (t *Timeout) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == stateArmed {
		return
	}
	t.state = stateArmed
	t.lastTouch = t.clk.Now()
	t.handle = t.scheduler.ExecuteAfter(t.duration, t.checkFire)
}

// Touch resets the idle clock on every successful fill or flush (spec.md
// §4.5). If armed, it reschedules expiry to now+duration.
func (t *Timeout) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateArmed {
		return
	}
	t.lastTouch = t.clk.Now()
	if t.handle != nil {
		t.handle.Cancel()
	}
	t.handle = t.scheduler.ExecuteAfter(t.duration, t.checkFire)
}

// Cancel transitions to inactive, suppressing any pending fire. Cancelling
// an inactive or already-fired Timeout is a no-op (idempotent).
func (t *Timeout) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateArmed {
		return
	}
	t.state = stateInactive
	if t.handle != nil {
		t.handle.Cancel()
		t.handle = nil
	}
}

// checkFire runs on the reactor when a scheduled expiry is reached. It
// re-verifies real elapsed time against lastTouch (in case Touch and this
// callback raced) rather than trusting the timer deadline blindly: if
// less than duration has actually elapsed, it reschedules the remainder
// instead of firing — spec.md §3: "fire is suppressed if inactive or if
// real elapsed < duration (reschedules the remainder)".
func (t *Timeout) checkFire() {
	t.mu.Lock()
	if t.state != stateArmed {
		t.mu.Unlock()
		return
	}
	elapsed := t.clk.Now().Sub(t.lastTouch)
	if elapsed < t.duration {
		t.handle = t.scheduler.ExecuteAfter(t.duration-elapsed, t.checkFire)
		t.mu.Unlock()
		return
	}
	t.state = stateFired
	fire := t.onFire
	t.mu.Unlock()
	if fire != nil {
		fire()
	}
}

// Fired reports whether the timeout has fired.
func (t *Timeout) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateFired
}
