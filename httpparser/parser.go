package httpparser

import (
	"github.com/xzero/reactorhttp/buf"
	"github.com/xzero/reactorhttp/message"
)

type state int

const (
	stStartLine state = iota
	stHeaderLine
	stContentFixed
	stContentChunkSize
	stContentChunkData
	stContentChunkCRLF
	stContentChunkTrailer
	stContentEndless
	stDone
	stProtocolError
)

// Parser is the restartable HTTP/1 state machine from spec.md §4.2. The
// zero value is not usable; build one with New.
type Parser struct {
	mode     Mode
	listener Listener
	buf      *buf.Buffer
	pos      int // next unconsumed byte, absolute offset into buf

	state state

	version       message.Version
	contentLength int64 // -1 unknown/absent
	chunked       bool
	remaining     int64 // bytes left in current fixed body or current chunk

	maxStartLineLen int
	maxHeaderLine   int
}

// New builds a Parser in the given Mode. maxStartLineLen and
// maxHeaderLine bound a single unterminated line before it is treated as
// a protocol error (414 for the start line, 400 for a header line),
// protecting against an unbounded buffer grown by a client that never
// sends CRLF.
func New(mode Mode, listener Listener, maxStartLineLen, maxHeaderLine int) *Parser {
	return &Parser{
		mode:            mode,
		listener:        listener,
		buf:             buf.NewBuffer(4096),
		contentLength:   -1,
		maxStartLineLen: maxStartLineLen,
		maxHeaderLine:   maxHeaderLine,
		state:           startState(mode),
	}
}

func startState(mode Mode) state {
	if mode == ModeMessage {
		return stHeaderLine
	}
	return stStartLine
}

// Reset returns the parser to message-begin for the next pipelined
// request on the same connection, preserving the mode.
func (p *Parser) Reset() {
	p.buf.Reset()
	p.pos = 0
	p.contentLength = -1
	p.chunked = false
	p.remaining = 0
	p.state = startState(p.mode)
}

// InProtocolError reports whether the parser is parked in the terminal
// error state.
func (p *Parser) InProtocolError() bool { return p.state == stProtocolError }

// ContentLength returns the declared Content-Length of the message
// currently being parsed, or -1 if absent/unknown. Intended for the
// channel to copy onto Request.ContentLength at on_message_header_end,
// since the parser intercepts this header and never forwards it to the
// Listener.
func (p *Parser) ContentLength() int64 { return p.contentLength }

// Chunked reports whether the message currently being parsed declared
// Transfer-Encoding: chunked.
func (p *Parser) Chunked() bool { return p.chunked }

// ParseFragment feeds data to the parser, returning how many of its
// bytes were consumed: len(data) unless the parser hits a protocol
// error or a Listener callback aborts. It parses every complete
// pipelined message in data, and an incomplete tail stays buffered for
// the next call (spec.md §4.2 and §8: restartable at any state; chunk-boundary
// invariant; consumed equals the first illegal byte's offset on error).
func (p *Parser) ParseFragment(data []byte) int {
	fragStart := p.buf.Len()
	p.buf.Append(data)

	aborted := false
loop:
	for {
		var cont, ok bool
		switch p.state {
		case stStartLine:
			cont, ok = p.parseStartLine()
		case stHeaderLine:
			cont, ok = p.parseHeaderLine()
		case stContentFixed:
			cont, ok = p.parseFixedContent()
		case stContentChunkSize:
			cont, ok = p.parseChunkSizeLine()
		case stContentChunkData:
			cont, ok = p.parseChunkData()
		case stContentChunkCRLF:
			cont, ok = p.parseChunkTrailingCRLF()
		case stContentChunkTrailer:
			cont, ok = p.parseChunkTrailerSection()
		case stContentEndless:
			cont, ok = p.parseEndlessContent()
		case stDone, stProtocolError:
			break loop
		}
		if !ok {
			break loop
		}
		if !cont {
			aborted = true
			break loop
		}
	}

	// Every byte handed to this call was already appended to the
	// internal buffer above, so unless a Listener callback aborted mid
	// stream or the parser hit a protocol error, the whole fragment
	// counts as consumed — the unprocessed tail (if any, e.g. a
	// request-line split mid-token) simply stays buffered for the next
	// call to resume from, it is not re-delivered by the caller.
	var consumed int
	if aborted || p.state == stProtocolError {
		consumed = p.pos - fragStart
		if consumed < 0 {
			consumed = 0
		}
		if consumed > len(data) {
			consumed = len(data)
		}
	} else {
		consumed = len(data)
	}

	// Drop fully-processed bytes now that every callback from this call
	// has returned (no Ref/slice handed to the listener is retained past
	// its callback), bounding memory for long-lived keep-alive
	// connections.
	if p.pos > 0 {
		p.buf.Compact(p.pos)
		p.pos = 0
	}
	return consumed
}

// findLF returns the absolute index of the next '\n' at or after from,
// or -1 if not yet present in the buffered data.
func (p *Parser) findLF(from int) int {
	data := p.buf.Bytes()
	for i := from; i < len(data); i++ {
		if data[i] == '\n' {
			return i
		}
	}
	return -1
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

// fail parks the parser in protocol-error and reports status. The
// first return is false whenever the listener aborted, mirroring every
// other parse* helper's (continue, consumedSomething) contract, folded
// into the ParseFragment loop via the same "cont" flag; the second is
// always true.
func (p *Parser) fail(status int) (bool, bool) {
	p.state = stProtocolError
	return p.listener.OnProtocolError(status), true
}
