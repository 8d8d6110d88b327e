//go:build !linux

package reactor

import (
	"os"
	"time"
)

// deadlineNonBlocking returns a deadline already in the past, which makes
// a subsequent Read return immediately once no more buffered bytes remain
// instead of blocking for the next wakeup.
func deadlineNonBlocking() time.Time {
	return time.Now().Add(-time.Second)
}

// wakePipe is the portable self-pipe fallback: a real pipe(2) pair, read
// end registered with the poller, write end used from other threads to
// interrupt a blocked wait() call.
type wakePipe struct {
	r *os.File
	w *os.File
}

func newWakePipe() (*wakePipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &wakePipe{r: r, w: w}, nil
}

func (w *wakePipe) readFD() int { return int(w.r.Fd()) }

func (w *wakePipe) wake() {
	_, _ = w.w.Write([]byte{1})
}

func (w *wakePipe) drain() {
	buf := make([]byte, 64)
	_ = w.r.SetReadDeadline(deadlineNonBlocking())
	for {
		n, err := w.r.Read(buf)
		if n == 0 || err != nil {
			return
		}
	}
}

func (w *wakePipe) close() error {
	_ = w.r.Close()
	return w.w.Close()
}
