package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockEndpointFillDrainsFedBytes(t *testing.T) {
	m := NewMockEndpoint(nil)
	m.Feed([]byte("GET / HTTP/1.1\r\n"))

	buf := make([]byte, 64)
	n, err := m.Fill(buf)
	assert.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1\r\n", string(buf[:n]))

	n, err = m.Fill(buf)
	assert.Equal(t, ErrWouldBlock, err)
	assert.Equal(t, 0, n)
}

func TestMockEndpointFlushAccumulates(t *testing.T) {
	m := NewMockEndpoint(nil)
	n, err := m.Flush([]byte("HTTP/1.1 200 OK\r\n"))
	assert.NoError(t, err)
	assert.Equal(t, 17, n)

	n, err = m.Flush([]byte("\r\n"))
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(m.Written()))
}

func TestMockEndpointCloseRejectsFurtherIO(t *testing.T) {
	m := NewMockEndpoint(nil)
	assert.True(t, m.IsOpen())
	assert.NoError(t, m.Close())
	assert.False(t, m.IsOpen())

	_, err := m.Fill(make([]byte, 8))
	assert.Equal(t, ErrClosed, err)

	_, err = m.Flush([]byte("x"))
	assert.Equal(t, ErrClosed, err)

	assert.NoError(t, m.Close())
}

func TestMockEndpointWantFillRunsSynchronouslyWithoutScheduler(t *testing.T) {
	m := NewMockEndpoint(nil)
	ran := false
	m.WantFill(func() { ran = true })
	assert.True(t, ran)
}
