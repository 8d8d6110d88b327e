package hdr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "Content-Type", CanonicalKey("content-type"))
	assert.Equal(t, "X-Request-Id", CanonicalKey("x-request-id"))
	assert.Equal(t, ContentLength, CanonicalKey("Content-Length"))
}

func TestHeaderFieldListPreservesDuplicateOrder(t *testing.T) {
	h := NewHeaderFieldList(0)
	h.Add("Set-Cookie", "a=1")
	h.Add("set-cookie", "b=2")

	vals := h.Values("Set-Cookie")
	assert.Equal(t, []string{"a=1", "b=2"}, vals)
	assert.Equal(t, "a=1", h.Get("SET-COOKIE"))
}

func TestHeaderFieldListSetReplacesAll(t *testing.T) {
	h := NewHeaderFieldList(0)
	h.Add("X-A", "1")
	h.Add("X-A", "2")
	h.Set("x-a", "3")
	assert.Equal(t, []string{"3"}, h.Values("X-A"))
}

func TestHeaderFieldListWriteToExcludes(t *testing.T) {
	h := NewHeaderFieldList(0)
	h.Add("Host", "example.com")
	h.Add(Connection, "close")

	var buf bytes.Buffer
	err := h.WriteTo(&buf, map[string]bool{Connection: true})
	assert.NoError(t, err)
	assert.Equal(t, "Host: example.com\r\n", buf.String())
}

func TestSanitizeValueStripsNewlines(t *testing.T) {
	h := NewHeaderFieldList(0)
	h.Add("X-Evil", "a\r\nSet-Cookie: evil=1")
	var buf bytes.Buffer
	require := assert.New(t)
	require.NoError(h.WriteTo(&buf, nil))
	require.NotContains(buf.String(), "\r\nSet-Cookie")
}
