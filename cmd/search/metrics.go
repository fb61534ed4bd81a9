package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// prometheusDefaultRegisterer exposes the process's default registry, so
// metrics survives alongside any other instrumentation a deployment adds.
func prometheusDefaultRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// serveMetrics runs a minimal /metrics HTTP endpoint until the process
// exits or the listener fails. Best-effort: a failure here never aborts
// the search itself.
func serveMetrics(addr string, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("metrics endpoint stopped")
	}
}
