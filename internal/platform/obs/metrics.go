package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	geocodeRequests *prometheus.CounterVec
	gateWait        prometheus.Histogram
	nearbyResults   prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geocode_cache_lookups_total",
			Help: "City coordinate cache lookups by result.",
		}, []string{"result"}),
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Outbound geocoding requests by outcome.",
		}, []string{"outcome"}),
		gateWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geocode_gate_wait_seconds",
			Help:    "Time spent waiting on the geocoding rate gate.",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		nearbyResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nearby_results",
			Help:    "Number of artists returned per nearby request.",
			Buckets: prometheus.LinearBuckets(0, 3, 9),
		}),
	}

	m.registry.MustRegister(
		m.cacheLookups,
		m.geocodeRequests,
		m.gateWait,
		m.nearbyResults,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) GeocodeRequest(outcome string) {
	if m == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GateWait(d time.Duration) {
	if m == nil {
		return
	}
	m.gateWait.Observe(d.Seconds())
}

func (m *Metrics) NearbyResults(n int) {
	if m == nil {
		return
	}
	m.nearbyResults.Observe(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
