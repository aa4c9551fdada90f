// Package metrics exposes tracker activity as Prometheus counters:
//
//	tracker_commands_total{strategy,kind}  stop moves and trade requests accepted by the ledger
//	tracker_signals_total{strategy,outcome} signals accepted, ignored or failed
//	tracker_halts_total{strategy}           instruments stopped by an execution failure
//	tracker_bars_total{strategy}            closed bars replayed
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	KindStop  = "stop"
	KindTrade = "trade"

	OutcomeAccepted = "accepted"
	OutcomeIgnored  = "ignored"
	OutcomeFailed   = "failed"
)

// Metrics owns a dedicated registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
	signals  *prometheus.CounterVec
	halts    *prometheus.CounterVec
	bars     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_commands_total",
				Help: "Commands accepted by the ledger",
			},
			[]string{"strategy", "kind"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_signals_total",
				Help: "Signals delivered to trackers by outcome",
			},
			[]string{"strategy", "outcome"},
		),
		halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_halts_total",
				Help: "Trackers halted after an execution failure",
			},
			[]string{"strategy"},
		),
		bars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_bars_total",
				Help: "Closed bars replayed",
			},
			[]string{"strategy"},
		),
	}
	m.registry.MustRegister(m.commands, m.signals, m.halts, m.bars)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Command(strategy, kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(strategy, kind).Inc()
}

func (m *Metrics) Signal(strategy, outcome string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) Halt(strategy string) {
	if m == nil {
		return
	}
	m.halts.WithLabelValues(strategy).Inc()
}

func (m *Metrics) Bar(strategy string) {
	if m == nil {
		return
	}
	m.bars.WithLabelValues(strategy).Inc()
}
