package endpoint

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xzero/reactorhttp/reactor"
)

func TestConnectorAcceptsConnectionAndInvokesFactory(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	accepted := make(chan Endpoint, 1)
	cfg := DefaultConnectorConfig("127.0.0.1:0")
	cfg.MultiAcceptCount = 4

	c, err := Listen(cfg, r, func(ep Endpoint) {
		accepted <- ep
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	c.Start()

	addr := localAddr(t, c.Fd())
	dialDone := make(chan struct{})
	go func() {
		conn, dialErr := net.DialTimeout("tcp", addr, time.Second)
		require.NoError(t, dialErr)
		defer conn.Close()
		close(dialDone)
		time.Sleep(50 * time.Millisecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, r.RunLoopOnce())
		select {
		case ep := <-accepted:
			assert.True(t, ep.IsOpen())
			_ = ep.Close()
			return
		default:
		}
	}
	t.Fatal("connector never accepted the dialed connection")
}

// localAddr resolves the address a listening fd is bound to, duplicating
// it through os.NewFile/net.FileListener so the original fd (still owned
// and registered with the reactor) is left untouched.
func localAddr(t *testing.T, fd int) string {
	t.Helper()
	dup, err := dupFd(fd)
	require.NoError(t, err)
	f := os.NewFile(uintptr(dup), "listener")
	defer f.Close()
	ln, err := net.FileListener(f)
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().String()
}
