package reactorhttp

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xzero/reactorhttp/endpoint"
	"github.com/xzero/reactorhttp/message"
	"github.com/xzero/reactorhttp/transport"
)

func dialWithRetry(t *testing.T, addr string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", addr, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerServesOneRequestEndToEnd(t *testing.T) {
	addr := "127.0.0.1:18181"

	handler := func(req *message.Request, resp *message.Response) {
		req.Handled = true
		resp.WriteHeader(200)
		resp.Write([]byte("hello " + req.URI))
		resp.Complete()
	}

	srv, err := New(Config{
		Connector: endpoint.ConnectorConfig{
			Network: "tcp",
			Address: addr,
			Backlog: 16,
		},
		Transport: transport.Config{Handler: handler},
		Reactors:  1,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	conn := dialWithRetry(t, addr)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /world HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, statusLine, "200")
}
