package endpoint

import (
	"sync"

	"github.com/xzero/reactorhttp/clock"
	"github.com/xzero/reactorhttp/idle"
	"github.com/xzero/reactorhttp/reactor"
)

// MockEndpoint is the in-memory Endpoint implementation spec.md §4.5
// calls for under "implementations: TCP socket and in-memory (test)".
// Inbound is fed by test code via Feed; Outbound accumulates everything
// written via Flush for assertions.
type MockEndpoint struct {
	mu       sync.Mutex
	inbound  []byte
	outbound []byte
	closed   bool
	idle     *idle.Timeout
	sched    Scheduler

	onFillWanted  func()
	onFlushWanted func()

	inFill bool // a synchronous WantFill task is running
}

// NewMockEndpoint builds a MockEndpoint whose idle timeout has a zero
// duration and is never armed. sched may be nil: WantFill/WantFlush then
// run their task synchronously, except that a WantFill made while such
// a fill task is still running is dropped rather than run.
func NewMockEndpoint(sched Scheduler) *MockEndpoint {
	m := &MockEndpoint{sched: sched}
	m.idle = idle.New(clock.Default, sched, 0, nil)
	return m
}

// Feed appends p to the buffer a subsequent Fill will drain from.
func (m *MockEndpoint) Feed(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, p...)
}

// Written returns everything flushed so far.
func (m *MockEndpoint) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.outbound))
	copy(out, m.outbound)
	return out
}

func (m *MockEndpoint) Fill(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	if len(m.inbound) == 0 {
		return 0, ErrWouldBlock
	}
	n := copy(p, m.inbound)
	m.inbound = m.inbound[n:]
	m.idle.Touch()
	return n, nil
}

func (m *MockEndpoint) Flush(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	m.outbound = append(m.outbound, p...)
	m.idle.Touch()
	return len(p), nil
}

func (m *MockEndpoint) WantFill(task reactor.Task) reactor.Handle {
	if m.onFillWanted != nil {
		m.onFillWanted()
	}
	if m.sched != nil {
		return m.sched.ExecuteAfter(0, task)
	}
	if m.inFill {
		// re-armed from inside a synchronous fill task: running it here
		// would recurse for as long as the task keeps re-arming.
		return noopHandle{}
	}
	m.inFill = true
	task()
	m.inFill = false
	return noopHandle{}
}

func (m *MockEndpoint) WantFlush(task reactor.Task) reactor.Handle {
	if m.onFlushWanted != nil {
		m.onFlushWanted()
	}
	if m.sched != nil {
		return m.sched.ExecuteAfter(0, task)
	}
	task()
	return noopHandle{}
}

func (m *MockEndpoint) SetCorking(on bool) error { return nil }

func (m *MockEndpoint) IdleTimeout() *idle.Timeout { return m.idle }

func (m *MockEndpoint) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *MockEndpoint) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.idle.Cancel()
	return nil
}

type noopHandle struct{}

func (noopHandle) Cancel() {}
