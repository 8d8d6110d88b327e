// Package metrics exposes the Prometheus collectors SPEC_FULL.md's
// Metrics section names, grounded on nabbar-golib's prometheus/
// client_golang dependency and the promauto.New*/prometheus.*Opts
// construction style used throughout the pack's engine-metrics code.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is a self-contained prometheus.Registerer: every collector is
// registered against its own *prometheus.Registry rather than the
// package-global DefaultRegisterer, so embedding this module as a
// library never mutates process-wide Prometheus state behind the
// caller's back. A nil *Registry is valid everywhere a Registry is
// accepted — every method is a no-op on a nil receiver — so transport
// and reactor can take a *Registry unconditionally and stay usable
// without Prometheus wired in at all.
type Registry struct {
	reg *prometheus.Registry

	connectionsActive prometheus.Gauge
	requestsTotal      prometheus.Counter
	parserErrorsTotal  prometheus.Counter
	timerFiresTotal    prometheus.Counter
}

// New builds a Registry with its own prometheus.Registry and registers
// the four collectors SPEC_FULL.md names.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reactorhttp_connections_active",
			Help: "Number of currently open connections.",
		}),
		requestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reactorhttp_requests_total",
			Help: "Total number of requests dispatched to the handler.",
		}),
		parserErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reactorhttp_parser_errors_total",
			Help: "Total number of protocol errors observed by the parser.",
		}),
		timerFiresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reactorhttp_timer_fires_total",
			Help: "Total number of timer wheel callbacks fired.",
		}),
	}
}

// Handler returns an http.Handler serving this Registry's collectors in
// the Prometheus exposition format, suitable for mounting at /metrics.
// Returns nil on a nil Registry.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return nil
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connectionsActive.Inc()
}

func (r *Registry) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

func (r *Registry) RequestServed() {
	if r == nil {
		return
	}
	r.requestsTotal.Inc()
}

func (r *Registry) ParserErrorObserved() {
	if r == nil {
		return
	}
	r.parserErrorsTotal.Inc()
}

// TimerFired counts one timer firing (spec.md §6), kept separate from
// the transport.Metrics interface since it reports on reactor-level
// activity rather than per-connection activity. Neither the reactor nor
// the timer wheel calls it; the counter only moves when a caller does.
func (r *Registry) TimerFired() {
	if r == nil {
		return
	}
	r.timerFiresTotal.Inc()
}
