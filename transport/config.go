package transport

import (
	"time"

	"github.com/xzero/reactorhttp/channel"
	"github.com/xzero/reactorhttp/logging"
)

// Config carries the per-Factory construction knobs. Fields left at
// their zero value are replaced by spec.md §6's defaults in
// withDefaults: backlog is endpoint.ConnectorConfig's concern, not
// ours; the rest (idle timeout, max URI, max body, max keep-alive
// requests) are this layer's.
type Config struct {
	// Handler is the user request handler, invoked once per request.
	Handler channel.Handler

	// Executor dispatches Handler. Defaults to a synchronous
	// reactor.DirectExecutor if nil — correct only when Handler never
	// blocks; pass a ThreadedExecutor for a blocking Handler.
	Executor channel.Executor

	// Reenter marshals Response.Complete's continuation back onto the
	// owning reactor thread (spec.md §5). Defaults to Executor itself,
	// which is only safe when Executor already runs on the reactor
	// thread (DirectExecutor, ReactorBoundExecutor) — a ThreadedExecutor
	// caller must supply a ReactorBoundExecutor here explicitly.
	Reenter channel.Executor

	MaxStartLineLen int           // default 8 KiB (max request URI, spec.md §6)
	MaxHeaderLine   int           // default 8 KiB
	MaxBodyBytes    int           // default 4 MiB
	RequestMax      int           // default 100 (max requests per keep-alive connection)
	IdleTimeout     time.Duration // default 60s; informational here, the Endpoint itself owns arming
	ReadBufferSize  int           // default 16 KiB

	Logger  *logging.Aggregator
	Metrics Metrics
}

const (
	defaultMaxStartLineLen = 8 << 10
	defaultMaxHeaderLine   = 8 << 10
	defaultMaxBodyBytes    = 4 << 20
	defaultRequestMax      = 100
	defaultIdleTimeout     = 60 * time.Second
	defaultReadBufferSize  = 16 << 10
)

func (c Config) withDefaults() Config {
	if c.MaxStartLineLen <= 0 {
		c.MaxStartLineLen = defaultMaxStartLineLen
	}
	if c.MaxHeaderLine <= 0 {
		c.MaxHeaderLine = defaultMaxHeaderLine
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.RequestMax <= 0 {
		c.RequestMax = defaultRequestMax
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	return c
}
