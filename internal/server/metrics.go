package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "inflation_dashboard"

// metrics holds the dashboard collectors on a private registry.
type metrics struct {
	registry        *prometheus.Registry
	datasetLoads    *prometheus.CounterVec
	exports         *prometheus.CounterVec
	requestFailures *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		datasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset resolutions by source and cache outcome.",
		}, []string{"source", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Downloads served by kind.",
		}, []string{"kind"}),
		requestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "request_failures_total",
			Help:      "Requests answered with an error or warning, by operation and status.",
		}, []string{"op", "status"}),
	}

	m.registry.MustRegister(
		m.datasetLoads,
		m.exports,
		m.requestFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
