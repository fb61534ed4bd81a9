// Package searchmetrics exposes process-local Prometheus counters/gauges
// for a running search: keys checked, matches found, and the last-known
// keys/sec rate. These are additive instrumentation only — the printed
// progress lines work identically whether or not anything scrapes these;
// an operator who wants them exposes the default registry's handler in
// their own process.
package searchmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups one search run's counters/gauges.
type Metrics struct {
	KeysChecked  prometheus.Counter
	MatchesFound prometheus.Counter
	KeysPerSec   prometheus.Gauge
}

// New registers and returns a fresh set of metrics against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer to expose via the default /metrics path.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		KeysChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eye_search",
			Name:      "keys_checked_total",
			Help:      "Total keys evaluated across all workers in this search.",
		}),
		MatchesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eye_search",
			Name:      "matches_found_total",
			Help:      "Total predicate matches found across all workers.",
		}),
		KeysPerSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eye_search",
			Name:      "keys_per_second",
			Help:      "Most recently measured aggregate keys/sec rate.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.KeysChecked, m.MatchesFound, m.KeysPerSec)
	}
	return m
}
