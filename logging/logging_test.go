package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatorRegistersSourcesOnce(t *testing.T) {
	agg := NewAggregator(nil)
	a := agg.Source("conn-1")
	b := agg.Source("conn-1")
	c := agg.Source("conn-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestLoggerLevelsDoNotPanic(t *testing.T) {
	agg := NewAggregator(nil)
	l := agg.Source("test")
	assert.NotPanics(t, func() {
		l.Tracef("test", "trace %d", 1)
		l.Debugf("test", "debug")
		l.Infof("test", "info %s", "x")
		l.Warnf("test", "warn")
		l.Errorf("test", "error: %v", assert.AnError)
	})
}
