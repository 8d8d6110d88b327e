// Package reactorhttp wires a reactor pool, one endpoint.Connector per
// reactor, and a transport.Factory into the Server type that is the
// module's primary entry point (spec.md §9's root composition).
package reactorhttp

import (
	"fmt"
	"sync"

	"github.com/xzero/reactorhttp/channel"
	"github.com/xzero/reactorhttp/endpoint"
	"github.com/xzero/reactorhttp/logging"
	"github.com/xzero/reactorhttp/metrics"
	"github.com/xzero/reactorhttp/reactor"
	"github.com/xzero/reactorhttp/transport"
)

// Config is the top-level construction input: one ConnectorConfig (the
// listening socket), one transport.Config projection (minus Handler,
// filled in separately), and how many reactor threads to run.
//
// Reactors > 1 requires Connector.ReusePort so each reactor's own
// listening socket, bound to the same address, is handed connections by
// the kernel's SO_REUSEPORT load balancing (spec.md §4.5) — each
// reactor then runs its own independent accept loop with no
// cross-reactor coordination at all.
type Config struct {
	Connector endpoint.ConnectorConfig
	Transport transport.Config
	Reactors  int

	Logger  *logging.Aggregator
	Metrics *metrics.Registry
}

// Server owns one reactor (and one Connector) per configured shard,
// each running in its own goroutine.
type Server struct {
	cfg Config

	mu        sync.Mutex
	reactors  []*reactor.Reactor
	conns     []*endpoint.Connector
	runErrs   chan error
	startOnce sync.Once
}

// New validates cfg and constructs (but does not start) a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Transport.Handler == nil {
		return nil, fmt.Errorf("reactorhttp: Config.Transport.Handler is required")
	}
	if cfg.Reactors <= 0 {
		cfg.Reactors = 1
	}
	if cfg.Reactors > 1 {
		cfg.Connector.ReusePort = true
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	cfg.Transport.Logger = cfg.Logger
	if cfg.Metrics != nil {
		cfg.Transport.Metrics = cfg.Metrics
	}
	return &Server{cfg: cfg}, nil
}

// Start spins up every shard's reactor goroutine and accept loop. It
// returns once every shard's Connector is listening, or the first error
// encountered tearing down every shard started so far.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.cfg.Reactors
	s.reactors = make([]*reactor.Reactor, 0, n)
	s.conns = make([]*endpoint.Connector, 0, n)
	s.runErrs = make(chan error, n)

	for i := 0; i < n; i++ {
		shardLogger := s.cfg.Logger.Source(fmt.Sprintf("reactor-%d", i))

		r, err := reactor.New(reactor.WithLogger(shardLogger))
		if err != nil {
			s.stopLocked()
			return fmt.Errorf("reactorhttp: starting reactor %d: %w", i, err)
		}

		factory := transport.NewFactory(s.cfg.Transport)
		connFactory := endpoint.ConnectionFactory(func(ep endpoint.Endpoint) {
			factory.Create(ep)
		})

		conn, err := endpoint.Listen(s.cfg.Connector, r, connFactory, shardLogger)
		if err != nil {
			_ = r.Close()
			s.stopLocked()
			return fmt.Errorf("reactorhttp: listening on shard %d: %w", i, err)
		}

		s.reactors = append(s.reactors, r)
		s.conns = append(s.conns, conn)

		conn.Start()
		go func(r *reactor.Reactor) {
			s.runErrs <- r.Run()
		}(r)
	}
	return nil
}

// Stop requests every shard's reactor to exit its loop after the
// current iteration and releases its kernel resources. Safe to call
// even if Start partially failed.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Server) stopLocked() {
	for _, r := range s.reactors {
		r.Stop()
	}
	for range s.reactors {
		<-s.runErrs
	}
	for _, r := range s.reactors {
		_ = r.Close()
	}
	s.reactors = nil
	s.conns = nil
}

// Handler is re-exported so callers building a Config don't need to
// import channel directly just to name the handler type.
type Handler = channel.Handler
