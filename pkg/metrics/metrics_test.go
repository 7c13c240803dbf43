package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.SearchStarted()
	m.CacheHit("memory")
	m.ObserveUpstream(0.1)
	m.RateLimitDecision("allowed")
	m.BlockCreated()
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SearchStarted()
	m.SearchStarted()
	m.CacheHit("persistent")
	m.RateLimitDecision("denied")

	if got := testutil.ToFloat64(m.Searches); got != 2 {
		t.Errorf("expected 2 searches, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("persistent")); got != 1 {
		t.Errorf("expected 1 persistent hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.RateLimitChecks.WithLabelValues("denied")); got != 1 {
		t.Errorf("expected 1 denial, got %v", got)
	}
}
