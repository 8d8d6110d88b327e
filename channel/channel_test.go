package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xzero/reactorhttp/httpparser"
	"github.com/xzero/reactorhttp/message"
	"github.com/xzero/reactorhttp/reactor"
)

type directExecutor struct{}

func (directExecutor) Execute(task reactor.Task) { task() }

func TestChannelDispatchesHandlerAndEnforces200(t *testing.T) {
	var gotReq *message.Request
	var gotResp *message.Response
	ready := 0

	c := New(func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.WriteHeader(200)
		resp.Write([]byte("ok"))
		resp.Complete()
	}, directExecutor{}, directExecutor{}, 1<<20, func(req *message.Request, resp *message.Response) {
		ready++
		gotReq, gotResp = req, resp
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("GET /hi HTTP/1.1\r\nHost: x\r\n\r\n"))

	require.Equal(t, 1, ready)
	assert.Equal(t, "/hi", gotReq.URI)
	assert.Equal(t, 200, gotResp.Status)
	assert.Equal(t, "ok", string(gotResp.Body()))
}

func TestChannelForces404WhenNotHandled(t *testing.T) {
	var status int
	c := New(func(req *message.Request, resp *message.Response) {
		resp.Complete()
	}, directExecutor{}, directExecutor{}, 1<<20, func(req *message.Request, resp *message.Response) {
		status = resp.Status
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("GET / HTTP/1.1\r\n\r\n"))

	assert.Equal(t, 404, status)
}

func TestChannelForces500WhenNoStatusSet(t *testing.T) {
	var status int
	c := New(func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.Complete()
	}, directExecutor{}, directExecutor{}, 1<<20, func(req *message.Request, resp *message.Response) {
		status = resp.Status
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("GET / HTTP/1.1\r\n\r\n"))

	assert.Equal(t, 500, status)
}

func TestChannelStripsConnectionLevelHeadersSetByHandler(t *testing.T) {
	var resp *message.Response
	c := New(func(req *message.Request, r *message.Response) {
		req.Handled = true
		r.WriteHeader(200)
		r.Headers.Set("Connection", "keep-alive")
		r.Headers.Set("Transfer-Encoding", "chunked")
		r.Complete()
	}, directExecutor{}, directExecutor{}, 1<<20, func(req *message.Request, r *message.Response) {
		resp = r
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("GET / HTTP/1.1\r\n\r\n"))

	require.NotNil(t, resp)
	assert.False(t, resp.Headers.Has("Connection"))
	assert.False(t, resp.Headers.Has("Transfer-Encoding"))
}

func TestChannelBodyTooLargeAborts(t *testing.T) {
	tooLarge := false
	c := New(func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.WriteHeader(200)
		resp.Complete()
	}, directExecutor{}, directExecutor{}, 4, func(req *message.Request, resp *message.Response) {
	}, func() {
		tooLarge = true
	}, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nhelloworld"))

	assert.True(t, tooLarge)
}

func TestChannelResetReusesBuffers(t *testing.T) {
	c := New(func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.WriteHeader(200)
		resp.Complete()
	}, directExecutor{}, directExecutor{}, 1<<20, func(req *message.Request, resp *message.Response) {
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)
	p.ParseFragment([]byte("GET /first HTTP/1.1\r\n\r\n"))
	c.Reset()
	assert.Equal(t, "", c.Request().URI)
	assert.Equal(t, 0, c.Response().Status)
}

// asyncExecutor defers the handler, letting a test control exactly when
// it runs — used to observe the busy-gate deferring a pipelined
// message_begin until the in-flight request completes.
type asyncExecutor struct {
	pending []reactor.Task
}

func (e *asyncExecutor) Execute(task reactor.Task) { e.pending = append(e.pending, task) }
func (e *asyncExecutor) runAll() {
	for len(e.pending) > 0 {
		task := e.pending[0]
		e.pending = e.pending[1:]
		task()
	}
}

func TestChannelDefersPipelinedMessageWhileBusy(t *testing.T) {
	exec := &asyncExecutor{}
	var readyURIs []string
	c := New(func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.WriteHeader(200)
		resp.Complete()
	}, exec, directExecutor{}, 1<<20, func(req *message.Request, resp *message.Response) {
		readyURIs = append(readyURIs, req.URI)
	}, nil, nil)

	p := httpparser.New(httpparser.ModeRequest, c, 8192, 8192)
	c.Attach(p)

	input := []byte("GET /one HTTP/1.1\r\n\r\nGET /two HTTP/1.1\r\n\r\n")
	n := p.ParseFragment(input)
	assert.Less(t, n, len(input), "second message should be deferred while the first is busy")
	assert.Empty(t, readyURIs)

	exec.runAll()
	assert.Equal(t, []string{"/one"}, readyURIs)
	c.Reset()

	n2 := p.ParseFragment(nil)
	assert.Equal(t, 0, n2)
	exec.runAll()
	assert.Equal(t, []string{"/one", "/two"}, readyURIs)
}
