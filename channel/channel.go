// Package channel implements the HttpChannel from spec.md §4.3: it
// marshals httpparser.Listener events onto a Request/Response pair and
// invokes the user handler exactly once per request, enforcing the
// handler contract (forced 500 on no status, forced 404 on
// Request.Handled unset) before handing the completed response back to
// the transport.
package channel

import (
	"github.com/xzero/reactorhttp/hdr"
	"github.com/xzero/reactorhttp/httpparser"
	"github.com/xzero/reactorhttp/message"
	"github.com/xzero/reactorhttp/reactor"
)

// Handler is the user request handler. It must eventually call
// resp.Complete(), possibly from another goroutine.
type Handler func(req *message.Request, resp *message.Response)

// Executor enqueues a task, per spec.md §2/§5 (direct, threaded, or
// reactor-bound) — reactor.DirectExecutor/ThreadedExecutor/
// ReactorBoundExecutor all satisfy this directly. Channel uses one
// Executor to dispatch the handler and a second (always the reactor's
// own) to re-enter the reactor thread when the handler completes from
// elsewhere.
type Executor interface {
	Execute(task reactor.Task)
}

// connectionLevelHeaders are stripped from a Response the handler wrote
// to directly, since the transport/respgen own them exclusively
// (spec.md §4.3: "reject connection-level headers if supplied by the
// user"). Incoming request headers of the same names are unaffected —
// those are accepted and stored for the transport's use.
var connectionLevelHeaders = []string{
	hdr.Connection,
	hdr.KeepAlive,
	hdr.TransferEncoding,
	hdr.TE,
	hdr.Upgrade,
}

// Channel implements httpparser.Listener, owning one (Request, Response)
// pair for the lifetime of the connection, reset between pipelined
// requests by the transport.
//
// Dispatch is deferred to on_message_end rather than
// on_message_header_end: this implementation's Request/Response model
// buffers an entire body/response in memory rather than streaming it
// (message.Input still offers a blocking io.Reader to the handler, but
// the bytes are already fully received by dispatch time), so invoking
// the handler only once the body has fully arrived avoids a reuse race
// where a synchronously-completing handler's Reset could clear the
// Request/Input out from under bytes the parser is still delivering for
// the same message. While handling is in flight (busy), a pipelined
// message_begin is deferred by returning false, which aborts the
// current ParseFragment call without discarding the already-buffered
// bytes; the transport resumes the parser (ParseFragment(nil)) once the
// channel frees up, matching spec.md §4.4's Handling-state row
// ("on fillable: buffer (pipelined)").
type Channel struct {
	handler  Handler
	executor Executor
	reenter  Executor
	maxBody  int

	parser   *httpparser.Parser
	req      *message.Request
	resp     *message.Response
	busy     bool
	draining bool

	onReady         func(req *message.Request, resp *message.Response)
	onBodyTooLarge  func()
	onProtocolError func(status int)
}

// New builds a Channel. executor dispatches the handler; reenter
// marshals the completion callback back onto the reactor thread
// (spec.md §5: "completion re-enters the reactor via execute()") — pass
// the reactor's own Execute, or a synchronous executor when the handler
// is guaranteed to complete on the reactor thread already. onReady is
// invoked once per request, after the handler contract has been
// enforced, with the completed Request and Response ready for the
// transport to flush. onBodyTooLarge is invoked when the input buffer
// would exceed maxBody (spec.md §4.3: emit 413, close persistence).
// onProtocolError is invoked when the parser detects a malformed
// message.
func New(handler Handler, executor, reenter Executor, maxBody int, onReady func(*message.Request, *message.Response), onBodyTooLarge func(), onProtocolError func(status int)) *Channel {
	return &Channel{
		handler:         handler,
		executor:        executor,
		reenter:         reenter,
		maxBody:         maxBody,
		req:             message.NewRequest(maxBody),
		resp:            message.NewResponse(),
		onReady:         onReady,
		onBodyTooLarge:  onBodyTooLarge,
		onProtocolError: onProtocolError,
	}
}

// Attach associates the Channel with the Parser driving it, so
// OnHeaderEnd can copy the parser's framing decision onto the Request.
func (c *Channel) Attach(p *httpparser.Parser) { c.parser = p }

// Busy reports whether a handler is currently dispatched and not yet
// complete — the transport uses this to decide whether resuming the
// parser after a flush might unblock a deferred pipelined message.
func (c *Channel) Busy() bool { return c.busy }

// Drain makes every subsequent OnMessageBegin refuse the message,
// leaving any already-buffered pipelined bytes untouched in the parser.
// The transport calls this once it has decided the current response is
// the connection's last (decay, protocol error, or an explicit
// Connection: close) — matching spec.md §4.4's Closing-state row
// ("on fillable: drop"): bytes that arrived already pipelined ahead of
// that decision must not start a new request.
func (c *Channel) Drain() { c.draining = true }

// Reset returns the channel to its initial state for the next pipelined
// request, reusing the Request/Response backing storage.
func (c *Channel) Reset() {
	c.req.Reset(c.maxBody)
	c.resp.Reset()
}

// Request and Response expose the channel's current pair, for the
// transport to read after onReady fires.
func (c *Channel) Request() *message.Request   { return c.req }
func (c *Channel) Response() *message.Response { return c.resp }

func (c *Channel) OnMessageBegin(method, uri []byte, version message.Version) bool {
	if c.busy || c.draining {
		return false
	}
	c.req.Method = string(method)
	c.req.URI = string(uri)
	c.req.Version = version
	c.req.Handled = false
	return true
}

func (c *Channel) OnHeader(name, value []byte) bool {
	c.req.Headers.Add(string(name), string(value))
	return true
}

func (c *Channel) OnHeaderEnd() bool {
	if c.parser != nil {
		if c.parser.Chunked() {
			c.req.ContentLength = -1
		} else {
			c.req.ContentLength = c.parser.ContentLength()
		}
	}
	return true
}

// OnContent appends a body fragment to the bounded input buffer; an
// overflow emits 413 and aborts persistence instead of forwarding more
// bytes (spec.md §4.3).
func (c *Channel) OnContent(chunk []byte) bool {
	if err := c.req.Input.Append(chunk); err != nil {
		if c.onBodyTooLarge != nil {
			c.onBodyTooLarge()
		}
		return false
	}
	return true
}

func (c *Channel) OnMessageEnd() bool {
	c.req.Input.CloseWithEOF()
	c.dispatch()
	return true
}

func (c *Channel) OnProtocolError(status int) bool {
	if c.onProtocolError != nil {
		c.onProtocolError(status)
	}
	return false
}

// dispatch installs the contract-enforcing completion hook and enqueues
// the handler on the channel's Executor.
func (c *Channel) dispatch() {
	c.busy = true
	c.resp.SetCompletionHook(func() {
		c.reenter.Execute(c.finish)
	})
	req, resp := c.req, c.resp
	c.executor.Execute(func() {
		c.handler(req, resp)
	})
}

// finish enforces the handler contract and strips connection-level
// headers before handing the pair back to the transport. Always runs on
// the reactor thread (via reenter), so it is safe for the transport's
// onReady to touch connection-wide state.
func (c *Channel) finish() {
	for _, name := range connectionLevelHeaders {
		c.resp.Headers.Del(name)
	}
	switch {
	case !c.req.Handled:
		c.resp.ForceStatus(404)
	case !c.resp.StatusSet():
		c.resp.ForceStatus(500)
	}
	c.busy = false
	if c.onReady != nil {
		c.onReady(c.req, c.resp)
	}
}
