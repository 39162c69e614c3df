// Package http provides the HTTP API and operational endpoints for the
// price comparison service.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jimale-ku/pricelens/internal/models"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	AdapterHealthStatus     *prometheus.GaugeVec
	SearchesTotal           *prometheus.CounterVec
	PricesStoredTotal       prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricelens_provider_requests_total",
				Help: "Total number of provider requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricelens_provider_request_duration_seconds",
				Help:    "Provider request duration in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		AdapterHealthStatus: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricelens_adapter_health_status",
				Help: "Adapter health (0=unknown, 1=healthy, 2=degraded, 3=down)",
			},
			[]string{"provider"},
		),
		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricelens_searches_total",
				Help: "Total number of search requests by status",
			},
			[]string{"status"},
		),
		PricesStoredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pricelens_prices_stored_total",
				Help: "Total number of price observations stored",
			},
		),
	}
}

// RecordProviderRequest records one provider call outcome.
func (m *Metrics) RecordProviderRequest(provider, status string, seconds float64) {
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordAdapterHealth records an adapter's current health status.
func (m *Metrics) RecordAdapterHealth(provider string, status models.HealthStatus) {
	var v float64
	switch status {
	case models.HealthHealthy:
		v = 1
	case models.HealthDegraded:
		v = 2
	case models.HealthDown:
		v = 3
	}
	m.AdapterHealthStatus.WithLabelValues(provider).Set(v)
}

// RecordSearch records one search request outcome.
func (m *Metrics) RecordSearch(status string) {
	m.SearchesTotal.WithLabelValues(status).Inc()
}

// RecordPricesStored records stored price observations.
func (m *Metrics) RecordPricesStored(count int) {
	m.PricesStoredTotal.Add(float64(count))
}
