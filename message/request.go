package message

import "github.com/xzero/reactorhttp/hdr"

// Request is the HttpRequest object model from spec.md §3: method, raw
// path+query, version, headers, a content-length hint, a bounded input
// stream, and the handled flag the channel uses to decide between a
// handler's real response and a synthesized 404.
type Request struct {
	Method        string
	URI           string // raw request-target, path+query unparsed
	Version       Version
	Headers       hdr.HeaderFieldList
	ContentLength int64 // -1 when absent/unknown (chunked)
	Input         *Input
	Handled       bool
}

// NewRequest builds an empty Request with a body cap of maxBody bytes.
func NewRequest(maxBody int) *Request {
	return &Request{
		ContentLength: -1,
		Input:         NewInput(maxBody),
	}
}

// Reset returns r to its zero state for the next pipelined request,
// reusing the Input's backing buffer (spec.md §3).
func (r *Request) Reset(maxBody int) {
	r.Method = ""
	r.URI = ""
	r.Version = Version{}
	r.Headers.Reset()
	r.ContentLength = -1
	r.Handled = false
	r.Input.Reset(maxBody)
}

// Header returns the first value for name, case-insensitively, or "".
func (r *Request) Header(name string) string {
	return r.Headers.Get(name)
}
