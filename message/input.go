package message

import (
	"errors"
	"io"
	"sync"
)

// ErrBodyTooLarge is returned once a request body exceeds the configured
// cap (spec.md §7: BodyTooLarge, channel over limit, emit 413).
var ErrBodyTooLarge = errors.New("message: request body exceeds configured limit")

// Input is the bounded input stream handle from spec.md §3 and §4.3: the
// channel appends bytes as on_message_content fires; the handler reads
// them via the standard io.Reader contract, blocking if it runs on a
// threaded executor (spec.md §5: "a handler may block when run on a
// threaded executor").
type Input struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	size    int
	maxSize int
	eof     bool
	err     error
}

// NewInput builds an empty Input capped at maxSize bytes.
func NewInput(maxSize int) *Input {
	in := &Input{maxSize: maxSize}
	in.cond = sync.NewCond(&in.mu)
	return in
}

// Append adds p to the buffered body. Returns ErrBodyTooLarge (and
// latches it for subsequent Reads) if the cap would be exceeded.
func (in *Input) Append(p []byte) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err != nil {
		return in.err
	}
	if in.size+len(p) > in.maxSize {
		in.err = ErrBodyTooLarge
		in.cond.Broadcast()
		return ErrBodyTooLarge
	}
	in.buf = append(in.buf, p...)
	in.size += len(p)
	in.cond.Broadcast()
	return nil
}

// CloseWithEOF marks the body complete (spec.md §4.3: on_message_end
// marks input EOF).
func (in *Input) CloseWithEOF() {
	in.mu.Lock()
	in.eof = true
	in.cond.Broadcast()
	in.mu.Unlock()
}

// Read implements io.Reader, blocking until data, EOF, or an overflow
// error is available.
func (in *Input) Read(p []byte) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for len(in.buf) == 0 && !in.eof && in.err == nil {
		in.cond.Wait()
	}
	if len(in.buf) == 0 {
		if in.err != nil {
			return 0, in.err
		}
		return 0, io.EOF
	}
	n := copy(p, in.buf)
	in.buf = in.buf[n:]
	return n, nil
}

// Reset returns the Input to its zero state for the next pipelined
// request on the same connection (spec.md §3: "HttpChannel — per-request
// object reset between pipelined requests").
func (in *Input) Reset(maxSize int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.buf = in.buf[:0]
	in.size = 0
	in.maxSize = maxSize
	in.eof = false
	in.err = nil
}
