package endpoint

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xzero/reactorhttp/clock"
	"github.com/xzero/reactorhttp/idle"
	"github.com/xzero/reactorhttp/reactor"
)

// TCPEndpoint is the non-blocking TCP socket Endpoint implementation
// from spec.md §4.5. Reads and writes go straight through
// golang.org/x/sys/unix rather than net.Conn, so the raw fd can be
// registered with the reactor's poller directly (net.Conn.File() would
// dup the fd and reset it to blocking mode, defeating the point).
type TCPEndpoint struct {
	mu     sync.Mutex
	fd     int
	sched  Scheduler
	idle   *idle.Timeout
	closed bool
}

// NewTCPEndpoint wraps fd (already non-blocking, close-on-exec) as an
// Endpoint, arming an IdleTimeout of idleTimeout against clock.Default,
// with its timer scheduled through sched.
// onIdle is invoked once the idle timeout actually fires.
func NewTCPEndpoint(fd int, sched Scheduler, idleTimeout time.Duration, onIdle func()) *TCPEndpoint {
	e := &TCPEndpoint{fd: fd, sched: sched}
	e.idle = idle.New(clock.Default, sched, idleTimeout, func() {
		if onIdle != nil {
			onIdle()
		}
		_ = e.Close()
	})
	if idleTimeout > 0 {
		e.idle.Arm()
	}
	return e
}

// Fd returns the underlying file descriptor.
func (e *TCPEndpoint) Fd() int { return e.fd }

func (e *TCPEndpoint) Fill(p []byte) (int, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrClosed
	}
	e.mu.Unlock()

	for {
		n, err := unix.Read(e.fd, p)
		if err == nil {
			if n == 0 {
				return 0, errPeerClosed
			}
			e.idle.Touch()
			return n, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
}

func (e *TCPEndpoint) Flush(p []byte) (int, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrClosed
	}
	e.mu.Unlock()

	for {
		n, err := unix.Write(e.fd, p)
		if err == nil {
			e.idle.Touch()
			return n, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			return 0, ErrWouldBlock
		}
		return 0, err
	}
}

func (e *TCPEndpoint) WantFill(task reactor.Task) reactor.Handle {
	return e.sched.ExecuteOnReadable(e.fd, task)
}

func (e *TCPEndpoint) WantFlush(task reactor.Task) reactor.Handle {
	return e.sched.ExecuteOnWritable(e.fd, task)
}

func (e *TCPEndpoint) SetCorking(on bool) error {
	if !corkingSupported {
		return nil
	}
	return setCork(e.fd, on)
}

func (e *TCPEndpoint) IdleTimeout() *idle.Timeout { return e.idle }

func (e *TCPEndpoint) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

func (e *TCPEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.idle.Cancel()
	return unix.Close(e.fd)
}

// errPeerClosed signals an orderly peer shutdown (read returned 0),
// distinct from ErrWouldBlock and ErrClosed so callers can tell the two
// apart from a genuine I/O error.
var errPeerClosed = errors.New("endpoint: peer closed connection")

// ErrPeerClosed is the exported form of errPeerClosed.
var ErrPeerClosed = errPeerClosed
