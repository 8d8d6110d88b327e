package httpparser

import (
	"bytes"
	"strconv"
)

// parseHeaderLine consumes one logical header field (which may span
// several physical lines when LWS-folded), or detects the blank line
// that ends the header section.
//
// Content-Length and Transfer-Encoding are intercepted here and never
// forwarded to the Listener (spec.md §4.2); chunked wins if both are
// present.
func (p *Parser) parseHeaderLine() (cont, ok bool) {
	lf := p.findLF(p.pos)
	if lf == -1 {
		if p.maxHeaderLine > 0 && p.buf.Len()-p.pos > p.maxHeaderLine {
			return p.fail(400)
		}
		return true, false
	}
	line := trimCR(p.buf.Ref(p.pos, lf-p.pos).Bytes(p.buf))
	if len(line) == 0 {
		p.pos = lf + 1
		return p.finishHeaders()
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return p.fail(400)
	}
	name := bytes.TrimRight(line[:colon], " \t")
	value := bytes.TrimLeft(line[colon+1:], " \t")
	value = bytes.TrimRight(value, " \t")

	// Peek the byte right after this line's LF to decide whether the
	// value folds onto a continuation line (LWS: CRLF followed by SP or
	// HT, per the GLOSSARY). If it isn't available yet, wait for more
	// data rather than guessing.
	if lf+1 >= p.buf.Len() {
		return true, false
	}
	next := p.buf.Bytes()[lf+1]
	if next != ' ' && next != '\t' {
		return p.emitHeader(name, value, lf+1)
	}
	return p.parseFoldedHeader(name, value, lf+1)
}

// parseFoldedHeader gathers continuation lines into a scratch copy,
// back-tracking the logical write position the way spec.md §4.2
// describes ("LWS ... folded by back-tracking the write mark"); a
// contiguous byte run spanning two physical lines can't be expressed as
// a single zero-copy slice, so this is the one place the parser copies.
func (p *Parser) parseFoldedHeader(name, firstValue []byte, nextLineStart int) (cont, ok bool) {
	scratch := append([]byte(nil), firstValue...)
	pos := nextLineStart
	for {
		lf := p.findLF(pos)
		if lf == -1 {
			if p.maxHeaderLine > 0 && p.buf.Len()-pos > p.maxHeaderLine {
				return p.fail(400)
			}
			return true, false
		}
		continuation := bytes.TrimSpace(trimCR(p.buf.Ref(pos, lf-pos).Bytes(p.buf)))
		scratch = append(scratch, ' ')
		scratch = append(scratch, continuation...)
		pos = lf + 1
		if pos >= p.buf.Len() {
			return true, false
		}
		next := p.buf.Bytes()[pos]
		if next != ' ' && next != '\t' {
			break
		}
	}
	return p.emitHeader(name, scratch, pos)
}

// emitHeader intercepts Content-Length/Transfer-Encoding, forwards
// everything else to the Listener, and advances past this header.
func (p *Parser) emitHeader(name, value []byte, newPos int) (cont, ok bool) {
	switch {
	case equalFold(name, "Content-Length"):
		n, err := strconv.ParseInt(string(value), 10, 64)
		if err != nil || n < 0 {
			return p.fail(400)
		}
		p.contentLength = n
		p.pos = newPos
		return true, true
	case equalFold(name, "Transfer-Encoding"):
		if bytes.Contains(bytes.ToLower(value), []byte("chunked")) {
			p.chunked = true
		}
		p.pos = newPos
		return true, true
	}
	p.pos = newPos
	if !p.listener.OnHeader(name, value) {
		return false, true
	}
	return true, true
}

func equalFold(a []byte, s string) bool {
	return len(a) == len(s) && bytes.EqualFold(a, []byte(s))
}

// finishHeaders decides body framing once the blank line terminating the
// header section has been consumed, per spec.md §4.2/§4.4: chunked wins
// over Content-Length; an absent length on a request means no body.
func (p *Parser) finishHeaders() (cont, ok bool) {
	if !p.listener.OnHeaderEnd() {
		return false, true
	}

	switch {
	case p.chunked:
		p.state = stContentChunkSize
		return true, true
	case p.contentLength > 0:
		p.remaining = p.contentLength
		p.state = stContentFixed
		return true, true
	case p.contentLength == 0, p.mode == ModeRequest:
		return p.finishMessage()
	default:
		p.state = stContentEndless
		return true, true
	}
}

// finishMessage emits on_message_end and, for pipelined requests, parks
// the parser back at message-begin for the next request on the wire.
func (p *Parser) finishMessage() (cont, ok bool) {
	if !p.listener.OnMessageEnd() {
		return false, true
	}
	if p.mode == ModeRequest {
		p.contentLength = -1
		p.chunked = false
		p.remaining = 0
		p.state = stStartLine
		return true, true
	}
	p.state = stDone
	return true, true
}
