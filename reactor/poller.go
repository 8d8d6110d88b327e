package reactor

// ioEvent reports what became ready for a single file descriptor.
type ioEvent struct {
	fd       int
	readable bool
	writable bool
	errored  bool
}

// poller is the kernel multiplex call from spec.md §4.1 step 2: "block on
// the kernel multiplex call, always including the wake-pipe's read end."
// Two implementations exist: an epoll-backed one for Linux
// (poller_linux.go, grounded on
// joeycumines-go-utilpkg/eventloop/poller_linux.go) and a unix.Poll-backed
// portable fallback (poller_poll.go) for other Unix targets.
type poller interface {
	// add registers fd for the given interest, replacing any existing
	// registration for that fd (one-shot semantics come from the caller
	// re-registering after each fire; the epoll implementation also sets
	// EPOLLONESHOT).
	add(fd int, readable, writable bool) error
	// remove deregisters fd. Removing an fd that was never added is a
	// no-op.
	remove(fd int) error
	// wait blocks up to timeoutMs (negative means forever) and returns
	// the fds that became ready. It must return promptly on EINTR being
	// retried internally — spec.md §4.1: "Multiplex call returning with
	// errno EINTR is retried."
	wait(timeoutMs int) ([]ioEvent, error)
	// close releases the poller's kernel resources.
	close() error
}
