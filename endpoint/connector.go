package endpoint

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xzero/reactorhttp/logging"
)

// resolveSockaddr resolves a "host:port" address into a unix.Sockaddr,
// reusing net.ResolveTCPAddr for hostname/service-name lookup rather
// than reimplementing DNS resolution.
func resolveSockaddr(network, address string) (unix.Sockaddr, error) {
	addr, err := net.ResolveTCPAddr(network, address)
	if err != nil {
		return nil, err
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}
	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	if addr.IP != nil {
		copy(sa.Addr[:], addr.IP.To16())
	}
	return &sa, nil
}

// ConnectorConfig holds the listener-construction knobs from spec.md §6
// (backlog) and §4.5 (multi-accept batching, linger, reuseport).
type ConnectorConfig struct {
	Network          string // "tcp", "tcp4", or "tcp6"
	Address          string
	Backlog          int
	MultiAcceptCount int
	ReusePort        bool
	Linger2          int // <=0 disables TCP_LINGER2
	IdleTimeout      time.Duration
}

// DefaultConnectorConfig returns spec.md §6's defaults.
func DefaultConnectorConfig(address string) ConnectorConfig {
	return ConnectorConfig{
		Network:          "tcp",
		Address:          address,
		Backlog:          128,
		MultiAcceptCount: 16,
		IdleTimeout:      60 * time.Second,
	}
}

// Connector owns a listening socket, accepts up to MultiAcceptCount
// connections per readable event, constructs Endpoints, and hands each
// to a ConnectionFactory (spec.md §4.5).
type Connector struct {
	cfg     ConnectorConfig
	fd      int
	sched   Scheduler
	factory ConnectionFactory
	logger  logging.Logger
	onAccept func(*TCPEndpoint)
	stopped bool
}

// Listen creates, binds, and begins listening on cfg's address, applying
// SO_REUSEADDR and (if requested) SO_REUSEPORT so multiple Connectors —
// each bound to its own reactor — can share one listening port (spec.md
// §4.3's "reactor pool sharing one listening socket via SO_REUSEPORT").
func Listen(cfg ConnectorConfig, sched Scheduler, factory ConnectionFactory, logger logging.Logger) (*Connector, error) {
	domain := unix.AF_INET
	sa, err := resolveSockaddr(cfg.Network, cfg.Address)
	if err != nil {
		return nil, err
	}
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &Connector{cfg: cfg, fd: fd, sched: sched, factory: factory, logger: logger}, nil
}

// Start arms the accept-readable interest (spec.md §4.5: "start() arms
// accept-readable interest").
func (c *Connector) Start() {
	c.arm()
}

func (c *Connector) arm() {
	if c.stopped {
		return
	}
	c.sched.ExecuteOnReadable(c.fd, c.acceptReady)
}

// acceptReady runs on the reactor when the listening socket is readable.
// It accepts up to MultiAcceptCount sockets before re-arming, per
// spec.md §4.5, treating EAGAIN/EWOULDBLOCK as "no more" and EINTR as
// "retry this accept".
func (c *Connector) acceptReady() {
	max := c.cfg.MultiAcceptCount
	if max <= 0 {
		max = 16
	}
	for i := 0; i < max; i++ {
		fd, _, err := acceptConn(c.fd)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				i--
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			if errors.Is(err, unix.ECONNABORTED) {
				// Peer reset before we could finish the handshake — skip
				// and keep accepting the rest of this batch.
				continue
			}
			if errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) {
				if c.logger != nil {
					c.logger.Warnf("reactorhttp/connector", "accept: file descriptor limit reached: %v", err)
				}
				break
			}
			if c.logger != nil {
				c.logger.Errorf("reactorhttp/connector", "accept: %v", err)
			}
			break
		}

		if c.cfg.Linger2 > 0 {
			_ = setLinger2(fd, c.cfg.Linger2)
		}

		ep := NewTCPEndpoint(fd, c.sched, c.cfg.IdleTimeout, nil)
		if c.onAccept != nil {
			c.onAccept(ep)
		}
		if c.factory != nil {
			c.factory(ep)
		}
	}
	c.arm()
}

// Stop prevents further re-arming; in-flight accepted connections are
// unaffected.
func (c *Connector) Stop() {
	c.stopped = true
}

// Close closes the listening socket.
func (c *Connector) Close() error {
	c.stopped = true
	return unix.Close(c.fd)
}

// Fd returns the listening socket's file descriptor.
func (c *Connector) Fd() int { return c.fd }

// dupFd duplicates fd, used by tests that need to inspect a listening
// socket (e.g. via net.FileListener) without disturbing the original
// registration.
func dupFd(fd int) (int, error) {
	return unix.Dup(fd)
}
