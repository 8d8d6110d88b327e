//go:build !linux

package reactor

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

// pollPoller is the portable fallback multiplex call, built on
// unix.Poll(2) rather than an OS-specific readiness API. It is the same
// "register fd, block, return ready set" shape as epollPoller, just O(n)
// in the number of registered fds per wait call instead of O(ready).
type pollPoller struct {
	mu      sync.Mutex
	fds     []unix.PollFd
	indexOf map[int]int
}

func newPoller() (poller, error) {
	return &pollPoller{indexOf: make(map[int]int)}, nil
}

func (p *pollPoller) add(fd int, readable, writable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var events int16
	if readable {
		events |= unix.POLLIN
	}
	if writable {
		events |= unix.POLLOUT
	}

	if i, ok := p.indexOf[fd]; ok {
		p.fds[i].Events = events
		return nil
	}
	p.indexOf[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
	return nil
}

func (p *pollPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.indexOf[fd]
	if !ok {
		return nil
	}
	last := len(p.fds) - 1
	p.fds[i] = p.fds[last]
	p.fds = p.fds[:last]
	delete(p.indexOf, fd)
	if i < len(p.fds) {
		p.indexOf[int(p.fds[i].Fd)] = i
	}
	return nil
}

func (p *pollPoller) wait(timeoutMs int) ([]ioEvent, error) {
	p.mu.Lock()
	snapshot := make([]unix.PollFd, len(p.fds))
	copy(snapshot, p.fds)
	p.mu.Unlock()

	for {
		n, err := unix.Poll(snapshot, timeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		out := make([]ioEvent, 0, n)
		for _, pfd := range snapshot {
			if pfd.Revents == 0 {
				continue
			}
			out = append(out, ioEvent{
				fd:       int(pfd.Fd),
				readable: pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0,
				writable: pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0,
				errored:  pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0,
			})
		}
		return out, nil
	}
}

func (p *pollPoller) close() error { return nil }
