package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRefSurvivesGrowth(t *testing.T) {
	b := NewBuffer(4)
	b.Append([]byte("GET "))
	ref := b.Ref(0, 3)
	require.Equal(t, "GET", ref.String(b))

	// Force several reallocations well past the initial capacity.
	for i := 0; i < 100; i++ {
		b.Append([]byte("x"))
	}
	assert.Equal(t, "GET", ref.String(b))
	assert.Equal(t, 104, b.Len())
}

func TestBufferCompactRebasesMark(t *testing.T) {
	b := NewBuffer(16)
	b.Append([]byte("0123456789"))
	b.MarkAt(6)
	b.Compact(4)
	assert.Equal(t, "456789", string(b.Bytes()))
	assert.Equal(t, 2, b.MarkOffset())
}

func TestRefOutOfRangePanics(t *testing.T) {
	b := NewBuffer(4)
	b.Append([]byte("ab"))
	assert.Panics(t, func() { b.Ref(0, 10) })
}
