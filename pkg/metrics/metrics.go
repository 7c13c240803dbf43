// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "azrael"

// Metrics holds all service instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Searches         prometheus.Counter
	CacheHits        *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
	RateLimitChecks  *prometheus.CounterVec
	BlocksCreated    prometheus.Counter
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search calls, cached or not.",
		}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "cache_hits_total",
			Help:      "Search cache hits by tier.",
		}, []string{"tier"}),
		UpstreamDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "upstream_duration_seconds",
			Help:      "Time spent in the corpus search on cache misses.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RateLimitChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "checks_total",
			Help:      "Rate limit decisions by outcome.",
		}, []string{"outcome"}),
		BlocksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "blocks_total",
			Help:      "IP blocks created automatically or by admins.",
		}),
	}
}

func (m *Metrics) SearchStarted() {
	if m != nil {
		m.Searches.Inc()
	}
}

func (m *Metrics) CacheHit(tier string) {
	if m != nil {
		m.CacheHits.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) ObserveUpstream(seconds float64) {
	if m != nil {
		m.UpstreamDuration.Observe(seconds)
	}
}

func (m *Metrics) RateLimitDecision(outcome string) {
	if m != nil {
		m.RateLimitChecks.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) BlockCreated() {
	if m != nil {
		m.BlocksCreated.Inc()
	}
}
