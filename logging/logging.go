// Package logging implements the Logger collaborator from spec.md §6
// ("log(level, source, message); levels {Trace, Debug, Info, Warn,
// Error}") and the process-wide LogAggregator registry from §5 ("holds a
// process-wide registry of sources keyed by name; registration and
// lookup are serialized").
//
// The concrete backend is github.com/hashicorp/go-hclog, grounded on
// nabbar-golib/logger/hashicorp and nabbar-golib/logger/hclog.go, which
// wrap the same library for the same purpose: a structured, leveled
// logger addressed by source name.
package logging

import (
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

// Level mirrors spec.md §6's five levels.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
)

func (l Level) hclevel() hclog.Level {
	switch l {
	case Trace:
		return hclog.Trace
	case Debug:
		return hclog.Debug
	case Info:
		return hclog.Info
	case Warn:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

// Logger is the collaborator interface used throughout the module. It is
// intentionally narrow — just enough for the transport/reactor/connector
// to report events without depending on hclog directly.
type Logger interface {
	Log(level Level, msg string, kv ...interface{})
	Tracef(source, format string, args ...interface{})
	Debugf(source, format string, args ...interface{})
	Infof(source, format string, args ...interface{})
	Warnf(source, format string, args ...interface{})
	Errorf(source, format string, args ...interface{})
}

// hclogLogger adapts a single named hclog.Logger to the Logger interface.
type hclogLogger struct {
	backend hclog.Logger
}

func (l *hclogLogger) Log(level Level, msg string, kv ...interface{}) {
	l.backend.Log(level.hclevel(), msg, kv...)
}

func (l *hclogLogger) Tracef(source, format string, args ...interface{}) {
	l.backend.Named(source).Trace(sprintf(format, args...))
}

func (l *hclogLogger) Debugf(source, format string, args ...interface{}) {
	l.backend.Named(source).Debug(sprintf(format, args...))
}

func (l *hclogLogger) Infof(source, format string, args ...interface{}) {
	l.backend.Named(source).Info(sprintf(format, args...))
}

func (l *hclogLogger) Warnf(source, format string, args ...interface{}) {
	l.backend.Named(source).Warn(sprintf(format, args...))
}

func (l *hclogLogger) Errorf(source, format string, args ...interface{}) {
	l.backend.Named(source).Error(sprintf(format, args...))
}

// Aggregator is the process-wide registry of named Loggers from spec.md
// §5. Registration and lookup are serialized by mu, matching "a
// process-wide registry of sources keyed by name; registration and
// lookup are serialized."
type Aggregator struct {
	mu      sync.Mutex
	root    hclog.Logger
	sources map[string]Logger
}

// NewAggregator builds an Aggregator whose root backend is an hclog
// logger built from the given hclog options (nil uses a logger named
// "reactorhttp" at Info level).
func NewAggregator(opts *hclog.LoggerOptions) *Aggregator {
	if opts == nil {
		opts = &hclog.LoggerOptions{Name: "reactorhttp", Level: hclog.Info}
	}
	return &Aggregator{
		root:    hclog.New(opts),
		sources: make(map[string]Logger),
	}
}

// Source returns the Logger registered under name, creating and
// registering one (named off the aggregator's root) if none exists yet.
func (a *Aggregator) Source(name string) Logger {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.sources[name]; ok {
		return l
	}
	l := &hclogLogger{backend: a.root.Named(name)}
	a.sources[name] = l
	return l
}

// defaultAggregator is the process-wide default, matching spec.md §9's
// design note: "Global LogAggregator singleton becomes an explicit
// handle threaded through construction, with a process-wide default
// provided by the application bootstrap."
var defaultAggregator = NewAggregator(nil)

// Default returns the process-wide default Aggregator. Applications that
// want a non-default backend should construct their own Aggregator and
// thread it explicitly into Server/Connector/Transport construction
// instead of relying on this.
func Default() *Aggregator { return defaultAggregator }

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
