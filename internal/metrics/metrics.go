package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several consoles (or tests) can live in one
// process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	upstream  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	freezes   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduadmin",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the platform API by method and result.",
		}, []string{"method", "result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduadmin",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh calls by outcome.",
		}, []string{"outcome"}),
		freezes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eduadmin",
			Name:      "student_freezes_total",
			Help:      "Auto-freeze attempts on students of expired groups by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstream,
		m.refreshes,
		m.freezes,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one upstream attempt. status 0 means the transport failed.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	result := "network_error"
	if status > 0 {
		result = strconv.Itoa(status)
	}
	m.upstream.WithLabelValues(method, result).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFreeze(outcome string) {
	if m == nil {
		return
	}
	m.freezes.WithLabelValues(outcome).Inc()
}
