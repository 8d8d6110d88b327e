package httpparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xzero/reactorhttp/message"
)

type event struct {
	kind    string
	a, b    string
	version message.Version
	status  int
}

type recorder struct {
	events []event
	abortAfter int // abort (return false) after this many events total, 0 = never
}

func (r *recorder) record(kind, a, b string) bool {
	r.events = append(r.events, event{kind: kind, a: a, b: b})
	if r.abortAfter > 0 && len(r.events) >= r.abortAfter {
		return false
	}
	return true
}

func (r *recorder) OnMessageBegin(method, uri []byte, v message.Version) bool {
	r.events = append(r.events, event{kind: "begin", a: string(method), b: string(uri), version: v})
	if r.abortAfter > 0 && len(r.events) >= r.abortAfter {
		return false
	}
	return true
}
func (r *recorder) OnHeader(name, value []byte) bool {
	return r.record("header", string(name), string(value))
}
func (r *recorder) OnHeaderEnd() bool { return r.record("headerEnd", "", "") }
func (r *recorder) OnContent(chunk []byte) bool {
	return r.record("content", string(chunk), "")
}
func (r *recorder) OnMessageEnd() bool { return r.record("end", "", "") }
func (r *recorder) OnProtocolError(status int) bool {
	r.events = append(r.events, event{kind: "error", status: status})
	return true
}

func (r *recorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.kind
	}
	return out
}

func TestParserSimpleRequestWithConnectionClose(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	n := p.ParseFragment(input)
	assert.Equal(t, len(input), n)
	assert.Equal(t, []string{"begin", "header", "header", "headerEnd", "end"}, rec.kinds())
	assert.Equal(t, "GET", rec.events[0].a)
	assert.Equal(t, "/", rec.events[0].b)
}

func TestParserChunkBoundaryInvariance(t *testing.T) {
	input := []byte("GET /one HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello")

	whole := &recorder{}
	p1 := New(ModeRequest, whole, 8192, 8192)
	p1.ParseFragment(input)

	for split := 1; split < len(input); split++ {
		rec := &recorder{}
		p := New(ModeRequest, rec, 8192, 8192)
		n1 := p.ParseFragment(input[:split])
		n2 := p.ParseFragment(input[split:])
		assert.Equal(t, split, n1, "split=%d", split)
		assert.Equal(t, len(input)-split, n2, "split=%d", split)
		assert.Equal(t, whole.kinds(), rec.kinds(), "split=%d", split)
	}
}

func TestParserChunkedBody(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")
	n := p.ParseFragment(input)
	assert.Equal(t, len(input), n)
	require.Equal(t, []string{"begin", "header", "headerEnd", "content", "end"}, rec.kinds())
	assert.Equal(t, "hello", rec.events[3].a)
}

func TestParserBadRequestLineNoVersionNoSecondToken(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET /\r\n\r\n")
	p.ParseFragment(input)
	// "GET /" parses as the 0.9 simple-GET form; the leftover blank line
	// is then parsed as the next request-line and is empty -> 400.
	assert.Contains(t, rec.kinds(), "error")
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, 400, last.status)
}

func TestParserUnknownVersionIs505(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET / HTTP/9.9\r\n\r\n")
	p.ParseFragment(input)
	require.NotEmpty(t, rec.events)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, "error", last.kind)
	assert.Equal(t, 505, last.status)
}

func TestParserPipelinedRequestsInOrder(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET /one HTTP/1.1\r\n\r\nGET /two HTTP/1.1\r\n\r\nGET /three HTTP/1.1\r\n\r\n")
	n := p.ParseFragment(input)
	assert.Equal(t, len(input), n)

	var uris []string
	for _, e := range rec.events {
		if e.kind == "begin" {
			uris = append(uris, e.b)
		}
	}
	assert.Equal(t, []string{"/one", "/two", "/three"}, uris)
}

func TestParserHeaderFolding(t *testing.T) {
	rec := &recorder{}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET / HTTP/1.1\r\nX-Long: part-one\r\n part-two\r\n\r\n")
	p.ParseFragment(input)
	var value string
	for _, e := range rec.events {
		if e.kind == "header" {
			value = e.b
		}
	}
	assert.Equal(t, "part-one part-two", value)
}

func TestParserListenerAbortStopsParsing(t *testing.T) {
	rec := &recorder{abortAfter: 1}
	p := New(ModeRequest, rec, 8192, 8192)
	input := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	n := p.ParseFragment(input)
	assert.Less(t, n, len(input))
	assert.Len(t, rec.events, 1)
}
