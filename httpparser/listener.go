// Package httpparser implements the pure byte-fed HTTP/1 state machine
// from spec.md §4.2: request-line/status-line, headers (with LWS
// folding), and fixed/chunked/endless body framing, emitting callbacks
// on message-begin, header, header-end, content-chunk, message-end, and
// protocol-error. It allocates nothing beyond the byte-slice subranges
// (cut directly from its internal buf.Buffer) it hands to the Listener —
// the zero-copy callback-with-(pointer,length) convention is the same
// one widely used C parsers (http_parser/llhttp) settle on, adapted here
// to Go byte slices backed by this module's own buf package.
package httpparser

import "github.com/xzero/reactorhttp/message"

// Mode selects which start line (if any) the parser expects.
type Mode int

const (
	ModeRequest Mode = iota
	ModeResponse
	ModeMessage // raw; no start line, headers begin immediately
)

// Listener receives parser events. Any callback returning false aborts
// parsing immediately (spec.md §4.2): parse_fragment returns the bytes
// consumed up to that point and the state machine remains parked at its
// current state, resumable on the next call.
//
// method, uri, name, and value slices are valid only for the duration of
// the call — they are cut directly from the parser's internal buffer,
// which may be compacted or overwritten once the callback returns.
// Callers that need to retain them must copy.
type Listener interface {
	OnMessageBegin(method, uri []byte, version message.Version) bool
	OnHeader(name, value []byte) bool
	OnHeaderEnd() bool
	OnContent(chunk []byte) bool
	OnMessageEnd() bool
	OnProtocolError(status int) bool
}
