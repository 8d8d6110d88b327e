package message

import (
	"strconv"
	"sync"

	"github.com/xzero/reactorhttp/hdr"
)

// ErrAlreadyCompleted is a ProgrammerError (spec.md §7): the handler
// contract requires Response.Complete to run exactly once.
type ErrAlreadyCompleted struct{}

func (ErrAlreadyCompleted) Error() string {
	return "message: Response.Complete called more than once"
}

// Response is the HttpResponse object model from spec.md §3: status,
// optional reason (defaulted from the status code), headers, a
// content-length-or-chunked indicator, and a write-output handle.
// Lifecycle: created at message start, mutated by the handler until
// Complete, then consumed by the transport.
type Response struct {
	mu sync.Mutex

	Status        int
	reason        string
	Headers       hdr.HeaderFieldList
	ContentLength int64 // -1 means unset (framing decided by transport)
	body          []byte

	statusSet bool
	completed bool
	onComplete func()
}

// NewResponse builds a Response with no status set yet.
func NewResponse() *Response {
	return &Response{ContentLength: -1}
}

// Reset returns r to its zero state for reuse across pipelined requests.
func (r *Response) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = 0
	r.reason = ""
	r.Headers.Reset()
	r.ContentLength = -1
	r.body = r.body[:0]
	r.statusSet = false
	r.completed = false
	r.onComplete = nil
}

// WriteHeader sets the status code. The first call wins; later calls are
// ignored, matching net/http's WriteHeader idiom.
func (r *Response) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusSet {
		return
	}
	r.Status = status
	r.statusSet = true
}

// SetReason overrides the default reason phrase for the status code.
func (r *Response) SetReason(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reason = reason
}

// Reason returns the explicit reason phrase, or "" if none was set
// (respgen substitutes the canonical phrase for the status code).
func (r *Response) Reason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// StatusSet reports whether the handler called WriteHeader.
func (r *Response) StatusSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusSet
}

// SetContentLength tells respgen the handler already knows the exact
// body length it is about to write, so the generator should emit that
// length verbatim instead of deciding between a computed Content-Length
// and chunked framing on its own. n must be the exact number of bytes
// the handler will Write; respgen does not re-validate it.
func (r *Response) SetContentLength(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ContentLength = n
}

// Write implements io.Writer, appending body bytes. An implicit
// WriteHeader(200) happens on the first Write if none was set yet,
// mirroring net/http.ResponseWriter.
func (r *Response) Write(p []byte) (int, error) {
	r.mu.Lock()
	if !r.statusSet {
		r.Status = 200
		r.statusSet = true
	}
	r.body = append(r.body, p...)
	r.mu.Unlock()
	return len(p), nil
}

// Body returns a copy of the body bytes written so far.
func (r *Response) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.body))
	copy(out, r.body)
	return out
}

// SetCompletionHook installs the transport's one-shot continuation,
// per spec.md §4.4: "exactly one completion hook may be pending at any
// time. Attempting to install a second is a fatal bug in the caller."
func (r *Response) SetCompletionHook(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onComplete != nil {
		panic("message: Response already has a pending completion hook (ProgrammerError)")
	}
	r.onComplete = hook
}

// Complete runs the pending completion hook exactly once. A second call
// is the ProgrammerError spec.md §7 calls out for double-completion.
func (r *Response) Complete() {
	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		panic(ErrAlreadyCompleted{})
	}
	r.completed = true
	hook := r.onComplete
	r.onComplete = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// ForceStatus overrides the status unconditionally, including after the
// handler already called WriteHeader. Used by the channel to enforce the
// handler contract's forced 404/500 defaults (spec.md §4.3), which must
// win regardless of what the handler already wrote.
func (r *Response) ForceStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.statusSet = true
}

// Completed reports whether Complete has already run.
func (r *Response) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// ReasonOrDefault returns the explicit reason if set, else the status
// code's decimal text. respgen does not use it: its status line carries
// the canonical phrase for known codes and an empty reason otherwise.
func (r *Response) ReasonOrDefault() string {
	reason := r.Reason()
	if reason != "" {
		return reason
	}
	return strconv.Itoa(r.Status)
}
