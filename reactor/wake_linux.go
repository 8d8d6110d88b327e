//go:build linux

package reactor

import "golang.org/x/sys/unix"

// wakePipe is the reactor's cross-thread wakeup mechanism (spec.md §4.1:
// "wakeable from another thread via a self-pipe"). On Linux we use a
// single eventfd instead of a two-fd pipe — it coalesces multiple wakeups
// into one readiness edge just as well and needs only one fd registered
// with the poller. Grounded on
// joeycumines-go-utilpkg/eventloop/wakeup_linux.go.
type wakePipe struct {
	fd int
}

func newWakePipe() (*wakePipe, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakePipe{fd: fd}, nil
}

func (w *wakePipe) readFD() int { return w.fd }

func (w *wakePipe) wake() {
	var one [8]byte
	one[7] = 1
	_, _ = unix.Write(w.fd, one[:])
}

func (w *wakePipe) drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *wakePipe) close() error {
	return unix.Close(w.fd)
}
