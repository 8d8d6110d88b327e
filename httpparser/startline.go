package httpparser

import (
	"bytes"

	"github.com/xzero/reactorhttp/message"
)

// parseStartLine consumes the request-line or status-line. Returns
// ok=false when more data is needed; ok=true with cont indicating
// whether to keep processing (cont=false means a Listener callback
// aborted parsing).
func (p *Parser) parseStartLine() (cont, ok bool) {
	lf := p.findLF(p.pos)
	if lf == -1 {
		if p.maxStartLineLen > 0 && p.buf.Len()-p.pos > p.maxStartLineLen {
			return p.fail(414)
		}
		return true, false
	}
	line := trimCR(p.buf.Ref(p.pos, lf-p.pos).Bytes(p.buf))
	lineEnd := lf + 1

	switch p.mode {
	case ModeRequest:
		return p.parseRequestLine(line, lineEnd)
	case ModeResponse:
		return p.parseStatusLine(line, lineEnd)
	default:
		p.pos = lineEnd
		p.state = stHeaderLine
		return true, true
	}
}

func (p *Parser) parseRequestLine(line []byte, lineEnd int) (cont, ok bool) {
	fields := bytes.SplitN(line, []byte(" "), 3)
	switch len(fields) {
	case 2:
		// HTTP/0.9 simple-GET form: "GET /entity\r\n" with no version
		// token at all (spec.md §4.2).
		method, uri := fields[0], fields[1]
		if string(method) != "GET" || len(method) == 0 || len(uri) == 0 {
			return p.fail(400)
		}
		// p.pos is not advanced past this line until OnMessageBegin
		// accepts it: a deferred (busy-channel) abort must leave the
		// whole line in the buffer for a later retry, since ParseFragment
		// compacts away everything up to p.pos once this call returns.
		if !p.listener.OnMessageBegin(method, uri, message.Version09) {
			return false, true
		}
		p.pos = lineEnd
		p.version = message.Version09
		if !p.listener.OnHeaderEnd() {
			return false, true
		}
		if !p.listener.OnMessageEnd() {
			return false, true
		}
		p.state = stStartLine
		return true, true
	case 3:
		method, uri, versionTok := fields[0], fields[1], fields[2]
		if len(method) == 0 || len(uri) == 0 {
			return p.fail(400)
		}
		v, ok := parseVersionToken(versionTok)
		if !ok {
			return p.fail(400)
		}
		if !v.Known() {
			p.pos = lineEnd
			return p.fail(505)
		}
		// Same reasoning as the 0.9 branch above: hold p.pos back until
		// the listener actually accepts the message.
		if !p.listener.OnMessageBegin(method, uri, v) {
			return false, true
		}
		p.pos = lineEnd
		p.version = v
		p.state = stHeaderLine
		return true, true
	default:
		return p.fail(400)
	}
}

func (p *Parser) parseStatusLine(line []byte, lineEnd int) (cont, ok bool) {
	fields := bytes.SplitN(line, []byte(" "), 3)
	if len(fields) < 2 {
		return p.fail(400)
	}
	v, vok := parseVersionToken(fields[0])
	if !vok {
		return p.fail(400)
	}
	if !v.Known() {
		p.pos = lineEnd
		return p.fail(505)
	}
	// Reuse OnMessageBegin with the status code's digits as "method" and
	// the reason phrase (if any) as "uri" — callers in Response mode
	// interpret these fields accordingly; the server-side Transport only
	// ever runs ModeRequest.
	reason := []byte("")
	if len(fields) == 3 {
		reason = fields[2]
	}
	if !p.listener.OnMessageBegin(fields[1], reason, v) {
		return false, true
	}
	p.pos = lineEnd
	p.version = v
	p.state = stHeaderLine
	return true, true
}

// parseVersionToken parses "HTTP/<major>.<minor>".
func parseVersionToken(tok []byte) (message.Version, bool) {
	const prefix = "HTTP/"
	if len(tok) < len(prefix)+3 || string(tok[:len(prefix)]) != prefix {
		return message.VersionUnknown, false
	}
	rest := tok[len(prefix):]
	dot := bytes.IndexByte(rest, '.')
	if dot <= 0 || dot == len(rest)-1 {
		return message.VersionUnknown, false
	}
	major, ok1 := parseDigits(rest[:dot])
	minor, ok2 := parseDigits(rest[dot+1:])
	if !ok1 || !ok2 {
		return message.VersionUnknown, false
	}
	return message.Version{Major: major, Minor: minor}, true
}

func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
