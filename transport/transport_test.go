package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzero/reactorhttp/endpoint"
	"github.com/xzero/reactorhttp/message"
)

func echoHandler(req *message.Request, resp *message.Response) {
	req.Handled = true
	resp.WriteHeader(200)
	resp.Write([]byte(req.URI + "\n"))
	resp.Complete()
}

func newTestFactory(handler func(*message.Request, *message.Response)) *Factory {
	return NewFactory(Config{Handler: handler})
}

func TestConnectionConnectionCloseHeaderAndSocketClose(t *testing.T) {
	f := newTestFactory(echoHandler)
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	f.Create(ep)

	out := string(ep.Written())
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200"), out)
	assert.Contains(t, out, "Connection: close")
	assert.NotContains(t, out, "Keep-Alive:")
	assert.False(t, ep.IsOpen())
}

func TestConnectionPipelinedRequestsInOrderWithDecrementingMax(t *testing.T) {
	f := newTestFactory(echoHandler)
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte(
		"GET /one HTTP/1.1\r\n\r\n" +
			"GET /two HTTP/1.1\r\n\r\n" +
			"GET /three HTTP/1.1\r\n\r\n",
	))

	f.Create(ep)

	out := string(ep.Written())
	responses := strings.Split(out, "HTTP/1.1 200")
	// responses[0] is empty (split on the delimiter that starts each one)
	require.Len(t, responses, 4)

	assert.Contains(t, responses[1], "/one\n")
	assert.Contains(t, responses[1], "Keep-Alive: timeout=60, max=99")
	assert.Contains(t, responses[2], "/two\n")
	assert.Contains(t, responses[2], "Keep-Alive: timeout=60, max=98")
	assert.Contains(t, responses[3], "/three\n")
	assert.Contains(t, responses[3], "Keep-Alive: timeout=60, max=97")

	assert.True(t, ep.IsOpen())
}

func TestConnectionMalformedRequestLineReturns400AndCloses(t *testing.T) {
	f := newTestFactory(echoHandler)
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("GET  HTTP/1.1\r\n\r\n"))

	f.Create(ep)

	out := string(ep.Written())
	assert.Contains(t, out, "400 Bad Request")
	assert.Contains(t, out, "Connection: close")
	assert.False(t, ep.IsOpen())
}

func TestConnectionVersionNotSupportedReturns505(t *testing.T) {
	f := newTestFactory(echoHandler)
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("GET / HTTP/9.9\r\n\r\n"))

	f.Create(ep)

	out := string(ep.Written())
	assert.Contains(t, out, "505 HTTP Version Not Supported")
	assert.False(t, ep.IsOpen())
}

func TestConnectionBodyTooLargeReturns413AndCloses(t *testing.T) {
	f := NewFactory(Config{Handler: echoHandler, MaxBodyBytes: 4})
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nhelloworld"))

	f.Create(ep)

	out := string(ep.Written())
	assert.Contains(t, out, "413")
	assert.False(t, ep.IsOpen())
}

func TestConnectionHTTP10RequiresExplicitKeepAliveToPersist(t *testing.T) {
	f := newTestFactory(echoHandler)
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("GET / HTTP/1.0\r\n\r\n"))

	f.Create(ep)

	out := string(ep.Written())
	assert.Contains(t, out, "HTTP/1.0 200")
	assert.Contains(t, out, "Connection: close")
	assert.False(t, ep.IsOpen())
}

func TestConnectionRequestMaxDecaysPersistence(t *testing.T) {
	f := NewFactory(Config{Handler: echoHandler, RequestMax: 1})
	ep := endpoint.NewMockEndpoint(nil)
	ep.Feed([]byte("GET /one HTTP/1.1\r\n\r\nGET /two HTTP/1.1\r\n\r\n"))

	f.Create(ep)

	out := string(ep.Written())
	// index 1 <= RequestMax 1: the first response still persists, with
	// Keep-Alive max=0 signaling no requests remain; the second request
	// (index 2) then exceeds RequestMax and is served as the closing one.
	responses := strings.Split(out, "HTTP/1.1 200")
	require.Len(t, responses, 3)
	assert.Contains(t, responses[1], "/one\n")
	assert.Contains(t, responses[1], "Keep-Alive: timeout=60, max=0")
	assert.Contains(t, responses[2], "/two\n")
	assert.Contains(t, responses[2], "Connection: close")
	assert.False(t, ep.IsOpen())
}
