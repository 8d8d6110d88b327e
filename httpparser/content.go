package httpparser

import "bytes"

// parseFixedContent delivers up to p.remaining bytes of a Content-Length
// framed body as they arrive.
func (p *Parser) parseFixedContent() (cont, ok bool) {
	available := p.buf.Len() - p.pos
	if available == 0 {
		return true, false
	}
	n := available
	if int64(n) > p.remaining {
		n = int(p.remaining)
	}
	chunk := p.buf.Ref(p.pos, n).Bytes(p.buf)
	if !p.listener.OnContent(chunk) {
		return false, true
	}
	p.pos += n
	p.remaining -= int64(n)
	if p.remaining == 0 {
		return p.finishMessage()
	}
	return true, true
}

// parseChunkSizeLine reads "<hex-size>[;ext]CRLF", grounded on the same
// chunk-extension-stripping and hex-parsing conventions badu-http's
// utils_chunks.go uses for its bufio-based chunk reader.
func (p *Parser) parseChunkSizeLine() (cont, ok bool) {
	lf := p.findLF(p.pos)
	if lf == -1 {
		if p.maxHeaderLine > 0 && p.buf.Len()-p.pos > p.maxHeaderLine {
			return p.fail(400)
		}
		return true, false
	}
	line := trimCR(p.buf.Ref(p.pos, lf-p.pos).Bytes(p.buf))
	if semi := bytes.IndexByte(line, ';'); semi != -1 {
		line = line[:semi]
	}
	size, err := parseHexUint(line)
	if err != nil {
		return p.fail(400)
	}
	p.pos = lf + 1
	if size == 0 {
		p.state = stContentChunkTrailer
		return true, true
	}
	p.remaining = int64(size)
	p.state = stContentChunkData
	return true, true
}

func (p *Parser) parseChunkData() (cont, ok bool) {
	available := p.buf.Len() - p.pos
	if available == 0 {
		return true, false
	}
	n := available
	if int64(n) > p.remaining {
		n = int(p.remaining)
	}
	chunk := p.buf.Ref(p.pos, n).Bytes(p.buf)
	if !p.listener.OnContent(chunk) {
		return false, true
	}
	p.pos += n
	p.remaining -= int64(n)
	if p.remaining == 0 {
		p.state = stContentChunkCRLF
	}
	return true, true
}

// parseChunkTrailingCRLF consumes the mandatory CRLF following each
// chunk's data before the next chunk-size line.
func (p *Parser) parseChunkTrailingCRLF() (cont, ok bool) {
	if p.buf.Len()-p.pos < 2 {
		return true, false
	}
	pair := p.buf.Ref(p.pos, 2).Bytes(p.buf)
	if pair[0] != '\r' || pair[1] != '\n' {
		return p.fail(400)
	}
	p.pos += 2
	p.state = stContentChunkSize
	return true, true
}

// parseChunkTrailerSection consumes the optional trailer header block
// (and its terminating blank line) after the zero-length final chunk.
// Trailer fields are not forwarded to the Listener — spec.md's Listener
// contract has no trailer callback — they are only skipped so the
// stream ends on the correct byte boundary.
func (p *Parser) parseChunkTrailerSection() (cont, ok bool) {
	lf := p.findLF(p.pos)
	if lf == -1 {
		if p.maxHeaderLine > 0 && p.buf.Len()-p.pos > p.maxHeaderLine {
			return p.fail(400)
		}
		return true, false
	}
	line := trimCR(p.buf.Ref(p.pos, lf-p.pos).Bytes(p.buf))
	p.pos = lf + 1
	if len(line) == 0 {
		return p.finishMessage()
	}
	return true, true
}

// parseEndlessContent streams whatever is available with no length
// bound, used for ModeResponse/ModeMessage bodies framed by connection
// close rather than Content-Length/chunked. FinishEndless must be called
// externally once the transport observes end-of-stream.
func (p *Parser) parseEndlessContent() (cont, ok bool) {
	available := p.buf.Len() - p.pos
	if available == 0 {
		return true, false
	}
	chunk := p.buf.Ref(p.pos, p.buf.Len()-p.pos).Bytes(p.buf)
	if !p.listener.OnContent(chunk) {
		return false, true
	}
	p.pos = p.buf.Len()
	return true, true
}

// FinishEndless signals that no more bytes will arrive for an endless
// body (the peer closed the connection), completing the message.
func (p *Parser) FinishEndless() bool {
	if p.state != stContentEndless {
		return true
	}
	ok := p.listener.OnMessageEnd()
	p.state = stDone
	return ok
}

// parseHexUint parses a lower- or upper-case hexadecimal chunk-size
// token, grounded on badu-http's utils_chunks.go parseHexUint.
func parseHexUint(v []byte) (uint64, error) {
	var n uint64
	if len(v) == 0 {
		return 0, errEmptyChunkSize
	}
	for i, b := range v {
		var d byte
		switch {
		case '0' <= b && b <= '9':
			d = b - '0'
		case 'a' <= b && b <= 'f':
			d = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			d = b - 'A' + 10
		default:
			return 0, errInvalidChunkSize
		}
		if i == 16 {
			return 0, errChunkSizeTooLarge
		}
		n <<= 4
		n |= uint64(d)
	}
	return n, nil
}
