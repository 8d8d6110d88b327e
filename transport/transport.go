// Package transport implements the HTTP Transport v1 connection from
// spec.md §4.4: the wire-level Connection that owns a parser, a
// channel.Channel, the response generator, and keep-alive/pipelining
// bookkeeping, driven entirely by one endpoint.Endpoint's fill/flush
// callbacks on the owning reactor thread.
package transport

import (
	"bytes"
	"strings"

	"github.com/google/uuid"

	"github.com/xzero/reactorhttp/channel"
	"github.com/xzero/reactorhttp/endpoint"
	"github.com/xzero/reactorhttp/hdr"
	"github.com/xzero/reactorhttp/httpparser"
	"github.com/xzero/reactorhttp/logging"
	"github.com/xzero/reactorhttp/message"
	"github.com/xzero/reactorhttp/reactor"
	"github.com/xzero/reactorhttp/respgen"
)

// Factory builds Connections for newly accepted Endpoints, sharing one
// Config, DateCache, and logging.Aggregator source across every
// connection it creates. Factory.Create has exactly the
// endpoint.ConnectionFactory signature and is handed straight to
// endpoint.Listen (spec.md §4.5: "let the configured ConnectionFactory
// attach a Connection and invoke on_open").
type Factory struct {
	cfg       Config
	dateCache *respgen.DateCache
}

// NewFactory builds a Factory, filling unset Config fields with spec.md
// §6's defaults and defaulting Executor/Reenter to a synchronous
// reactor.DirectExecutor pair when the caller leaves them nil (correct
// for a Handler that never blocks; a blocking Handler must supply its
// own ThreadedExecutor + ReactorBoundExecutor pair).
func NewFactory(cfg Config) *Factory {
	cfg = cfg.withDefaults()
	if cfg.Executor == nil {
		cfg.Executor = reactor.NewDirectExecutor(false)
	}
	if cfg.Reenter == nil {
		cfg.Reenter = cfg.Executor
	}
	return &Factory{cfg: cfg, dateCache: respgen.NewDateCache()}
}

// Create attaches a new Connection to ep and opens it. Matches
// endpoint.ConnectionFactory.
func (f *Factory) Create(ep endpoint.Endpoint) {
	c := newConnection(f, ep)
	c.open()
}

type connState int

const (
	stateReading connState = iota
	stateWriting
	stateClosed
)

// Connection is the per-connection state machine from spec.md §4.4. One
// Connection is touched by exactly one reactor thread for its entire
// lifetime (spec.md §5), so it carries no internal locking.
type Connection struct {
	id     string
	ep     endpoint.Endpoint
	parser *httpparser.Parser
	ch     *channel.Channel
	logger logging.Logger

	factory *Factory

	readBuf  []byte
	writeBuf []byte
	writeOff int

	state        connState
	requestCount int  // requests completed so far on this connection
	closeAfter   bool // true once the current/pending write is this connection's last

	// fillArmed/flushArmed guard WantFill/WantFlush against being armed
	// twice for the same one-shot interest: a synchronous Executor can
	// resolve an entire pipelined response cascade (dispatch -> flush ->
	// resume next -> dispatch -> ...) within a single call stack, and
	// without these guards each stack frame unwinding back through
	// onWriteComplete would re-arm on top of the innermost frame's arm.
	fillArmed  bool
	flushArmed bool

	// parsing is true for the duration of any top-level
	// parser.ParseFragment call made from onFillable. A synchronous
	// Executor pair can complete a request (and so reach
	// onWriteComplete) reentrantly, from deep inside that same call's
	// callback chain; onWriteComplete checks this flag to avoid calling
	// ParseFragment itself while a call is already running further up
	// the stack — the outer call's own loop continues to the next
	// pipelined message on its own once control unwinds back to it.
	parsing bool
}

func newConnection(f *Factory, ep endpoint.Endpoint) *Connection {
	id := uuid.NewString()
	c := &Connection{
		id:      id,
		ep:      ep,
		factory: f,
		logger:  f.cfg.Logger.Source(id),
		readBuf: make([]byte, f.cfg.ReadBufferSize),
	}
	c.ch = channel.New(
		f.cfg.Handler,
		f.cfg.Executor,
		f.cfg.Reenter,
		f.cfg.MaxBodyBytes,
		c.onRequestReady,
		c.onBodyTooLarge,
		c.onProtocolError,
	)
	c.parser = httpparser.New(httpparser.ModeRequest, c.ch, f.cfg.MaxStartLineLen, f.cfg.MaxHeaderLine)
	c.ch.Attach(c.parser)
	return c
}

// open arms the first fill interest. The Endpoint's own IdleTimeout is
// already armed by the time Create hands it over (spec.md §4.5: the
// Connector arms it at construction); Connection does not re-arm it.
func (c *Connection) open() {
	c.factory.cfg.Metrics.ConnectionOpened()
	c.logger.Debugf(c.id, "connection open")
	c.armFill()
}

func (c *Connection) armFill() {
	if c.state == stateClosed || !c.ep.IsOpen() || c.fillArmed {
		return
	}
	c.fillArmed = true
	c.ep.WantFill(c.onFillable)
}

func (c *Connection) armFlush() {
	if c.state == stateClosed || !c.ep.IsOpen() || c.flushArmed {
		return
	}
	c.flushArmed = true
	c.ep.WantFlush(c.onFlushable)
}

// onFillable drains every byte currently available without blocking,
// feeding each chunk to the parser. It stops as soon as the connection
// has decided to stop reading (a response got queued, a protocol error
// fired, or the body exceeded its cap) — spec.md §4.4's Handling/Writing
// rows both read "on fillable: buffer (pipelined)", which this
// implements by letting ParseFragment keep appending to its own internal
// buffer while declining to dispatch a second time until the first
// response is at least queued.
func (c *Connection) onFillable() {
	c.fillArmed = false
	if c.state == stateClosed {
		return
	}
	for {
		n, err := c.ep.Fill(c.readBuf)
		if err == endpoint.ErrWouldBlock {
			c.armFill()
			return
		}
		if err == endpoint.ErrPeerClosed {
			c.closeNow()
			return
		}
		if err != nil {
			c.logger.Warnf(c.id, "fill: %v", wrapError(IoError, err))
			c.closeNow()
			return
		}
		if n == 0 {
			c.closeNow()
			return
		}

		c.parsing = true
		c.parser.ParseFragment(c.readBuf[:n])
		c.parsing = false

		if c.parser.InProtocolError() || c.state != stateReading {
			// A response is already queued (normal completion, protocol
			// error, or body-too-large) — stop reading; any further bytes
			// already sitting in the parser's buffer are left alone
			// (spec.md §4.4 Closing row: "on fillable: drop").
			return
		}

		if n < len(c.readBuf) {
			// Socket had less than a full buffer ready; nothing more to
			// drain without blocking.
			break
		}
	}
	c.armFill()
}

// onRequestReady is the channel's onReady hook: req/resp have already
// had the handler contract enforced (forced 404/500, connection-level
// headers stripped). It computes this connection's persistence decision
// and queues the serialized response.
func (c *Connection) onRequestReady(req *message.Request, resp *message.Response) {
	c.factory.cfg.Metrics.RequestServed()

	version := req.Version
	if !version.Known() {
		version = message.Version11
	}

	c.requestCount++
	index := c.requestCount

	persistent := persistenceAllowed(req, version) && index <= c.factory.cfg.RequestMax
	conn := respgen.ConnectionHeaders{Persistent: persistent}
	if persistent {
		conn.KeepAliveSecs = int(c.factory.cfg.IdleTimeout.Seconds())
		conn.RequestsLeft = c.factory.cfg.RequestMax - index
	}

	c.queueResponse(resp, version, conn, nil)
	c.logger.Tracef(c.id, "request %d %s %s -> %d (persistent=%v)", index, req.Method, req.URI, resp.Status, persistent)
}

// persistenceAllowed implements spec.md §4.4's base persistence rule,
// excluding the request-index/protocol-error conditions Connection
// layers on separately.
func persistenceAllowed(req *message.Request, version message.Version) bool {
	conn := req.Header(hdr.Connection)
	switch {
	case version.AtLeast(message.Version11):
		return !hasToken(conn, "close")
	case version == message.Version10:
		return hasToken(conn, "keep-alive")
	default:
		return false
	}
}

func hasToken(headerValue, token string) bool {
	for _, part := range strings.Split(headerValue, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

// onProtocolError builds and queues a synthetic error response for a
// parser-level rejection (spec.md §7: ProtocolError/VersionUnsupported/
// UriTooLong all surface here with their respective status code) and
// marks the connection non-persistent.
func (c *Connection) onProtocolError(status int) {
	c.factory.cfg.Metrics.ParserErrorObserved()
	c.logger.Warnf(c.id, "protocol error: %d", status)

	resp := message.NewResponse()
	resp.ForceStatus(status)
	resp.Write([]byte(respgen.ReasonPhrase(status)))

	version := c.ch.Request().Version
	if !version.Known() {
		version = message.Version11
	}
	c.queueResponse(resp, version, respgen.ConnectionHeaders{Persistent: false}, nil)
}

// onBodyTooLarge is the channel's overflow hook (spec.md §7:
// BodyTooLarge, "channel over limit, emit 413").
func (c *Connection) onBodyTooLarge() {
	resp := message.NewResponse()
	resp.ForceStatus(413)
	resp.Write([]byte(respgen.ReasonPhrase(413)))

	version := c.ch.Request().Version
	if !version.Known() {
		version = message.Version11
	}
	c.queueResponse(resp, version, respgen.ConnectionHeaders{Persistent: false}, nil)
}

// queueResponse serializes resp and appends it to the pending write
// buffer. Because a synchronous Executor can cascade several pipelined
// dispatches within one ParseFragment call, queueResponse appends rather
// than replaces, so responses end up flushed together in request order
// (spec.md §5: "within a single connection, responses are written in
// request-arrival order").
func (c *Connection) queueResponse(resp *message.Response, version message.Version, conn respgen.ConnectionHeaders, file *respgen.FileRegion) {
	if !conn.Persistent {
		c.closeAfter = true
		c.ch.Drain()
	}

	var buf bytes.Buffer
	if _, err := respgen.WriteResponse(&buf, resp, version, conn, c.factory.dateCache, file); err != nil {
		c.logger.Errorf(c.id, "write response: %v", err)
		c.closeAfter = true
	}
	c.writeBuf = append(c.writeBuf, buf.Bytes()...)
	c.state = stateWriting
	c.flushNow()
}

// flushNow attempts an opportunistic non-blocking flush of whatever is
// queued, arming WantFlush if the endpoint can't take it all right now.
func (c *Connection) flushNow() {
	for c.writeOff < len(c.writeBuf) {
		n, err := c.ep.Flush(c.writeBuf[c.writeOff:])
		if err == endpoint.ErrWouldBlock {
			c.armFlush()
			return
		}
		if err != nil {
			c.logger.Warnf(c.id, "flush: %v", wrapError(IoError, err))
			c.closeNow()
			return
		}
		c.writeOff += n
	}
	c.onWriteComplete()
}

func (c *Connection) onFlushable() {
	c.flushArmed = false
	if c.state == stateClosed {
		return
	}
	c.flushNow()
}

// onWriteComplete runs once every queued byte has been flushed: either
// the connection closes (spec.md §4.4 Writing→Closing), or it resets for
// the next request and immediately resumes parsing any bytes the client
// already pipelined ahead of this response (spec.md §4.4: "upon
// Writing → KeepAlive transition ... re-enters Reading immediately
// without waiting for readable events").
func (c *Connection) onWriteComplete() {
	c.writeBuf = c.writeBuf[:0]
	c.writeOff = 0

	if c.closeAfter {
		c.closeNow()
		return
	}

	c.ch.Reset()
	c.state = stateReading

	if c.parsing {
		// A parser.ParseFragment call further up the stack is still
		// running (this onWriteComplete was reached reentrantly, via a
		// synchronous Executor completing the request inline). That
		// outer call's own loop will continue on to the next pipelined
		// message by itself once control unwinds back to it — calling
		// ParseFragment again here would run a second state-machine pass
		// reentrantly over the same parser instance.
		return
	}

	c.parser.ParseFragment(nil)
	if c.parser.InProtocolError() || c.state != stateReading {
		// ParseFragment(nil) resumed an already-buffered pipelined
		// request and queued its response synchronously.
		return
	}
	c.armFill()
}

func (c *Connection) closeNow() {
	if c.state == stateClosed {
		return
	}
	c.state = stateClosed
	c.factory.cfg.Metrics.ConnectionClosed()
	c.logger.Debugf(c.id, "connection close")
	_ = c.ep.Close()
}
