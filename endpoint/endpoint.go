// Package endpoint implements the Endpoint and Connector substrate from
// spec.md §4.5: a byte stream with fill/flush semantics, carrying an
// idle-timeout handle, plus a listening-socket Connector that accepts
// new connections and hands them to a ConnectionFactory.
package endpoint

import (
	"errors"
	"time"

	"github.com/xzero/reactorhttp/idle"
	"github.com/xzero/reactorhttp/reactor"
)

// ErrWouldBlock is returned by Fill/Flush when the underlying fd has no
// data (or no write buffer space) available right now — the caller
// should arm WantFill/WantFlush and wait for the reactor to call back.
var ErrWouldBlock = errors.New("endpoint: would block")

// ErrClosed is returned by Fill/Flush once the Endpoint has been closed.
var ErrClosed = errors.New("endpoint: closed")

// Endpoint is a byte stream with fill(buf) → bytes and flush(buf) →
// bytes semantics (spec.md §3). Implementations: a non-blocking TCP
// socket (tcp.go) and an in-memory mock for tests (mock.go).
type Endpoint interface {
	// Fill appends up to len(p) bytes read from the stream into p,
	// returning the count read. Returns (0, ErrWouldBlock) if no data is
	// available without blocking.
	Fill(p []byte) (int, error)

	// Flush writes up to len(p) bytes from p to the stream, returning the
	// count written. Returns (0, ErrWouldBlock) if the stream cannot
	// accept more data without blocking.
	Flush(p []byte) (int, error)

	// WantFill arms a one-shot readable interest; task runs once the
	// stream has data to Fill.
	WantFill(task reactor.Task) reactor.Handle

	// WantFlush arms a one-shot writable interest; task runs once the
	// stream can accept a Flush.
	WantFlush(task reactor.Task) reactor.Handle

	// SetCorking enables or disables TCP_CORK-style batching where the
	// platform supports it; a no-op returning nil elsewhere.
	SetCorking(on bool) error

	// IdleTimeout returns the idle-timeout handle owned by this Endpoint.
	// Touched on every successful Fill/Flush; cancelled on Close.
	IdleTimeout() *idle.Timeout

	// IsOpen reports whether the Endpoint has not yet been closed.
	IsOpen() bool

	// Close releases the underlying resource. Idempotent.
	Close() error
}

// Scheduler is the subset of Reactor that Endpoint and Connector need,
// kept narrow so tests can supply a fake reactor.
type Scheduler interface {
	ExecuteOnReadable(fd int, task reactor.Task) reactor.Handle
	ExecuteOnWritable(fd int, task reactor.Task) reactor.Handle
	ExecuteAfter(d time.Duration, task reactor.Task) reactor.Handle
}

// ConnectionFactory attaches a Connection to a newly accepted (or
// test-constructed) Endpoint and invokes its on_open hook. Defined here
// rather than importing transport, which depends on endpoint, avoiding
// an import cycle — the method value transport.Factory.Create has this
// exact signature and is handed to Connector/root Server construction.
type ConnectionFactory func(Endpoint)
