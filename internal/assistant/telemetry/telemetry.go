// Package telemetry exposes the assistant's prometheus collectors. A nil
// *Metrics is safe everywhere so tests can run components without a registry.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the retrieval and fallback pipeline.
type Metrics struct {
	KBLookups         prometheus.Counter
	KBHits            prometheus.Counter
	Refusals          prometheus.Counter
	ProviderAttempts  *prometheus.CounterVec
	AggregateFailures prometheus.Counter
	ProviderLatency   prometheus.Histogram
}

// New registers the assistant collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		KBLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assist_kb_lookups_total",
			Help: "Knowledge-base searches performed.",
		}),
		KBHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assist_kb_hits_total",
			Help: "Knowledge-base searches that produced an accepted match.",
		}),
		Refusals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assist_refusals_total",
			Help: "Unauthenticated queries refused before any lookup.",
		}),
		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assist_provider_attempts_total",
			Help: "Text-generation attempts by tier and outcome.",
		}, []string{"tier", "outcome"}),
		AggregateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assist_aggregate_failures_total",
			Help: "Generations where every fallback tier failed.",
		}),
		ProviderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assist_provider_latency_seconds",
			Help:    "Latency of individual provider calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.KBLookups, m.KBHits, m.Refusals, m.ProviderAttempts, m.AggregateFailures, m.ProviderLatency)
	return m
}

// IncKBLookup records one knowledge-base search.
func (m *Metrics) IncKBLookup() {
	if m != nil {
		m.KBLookups.Inc()
	}
}

// IncKBHit records one accepted knowledge-base match.
func (m *Metrics) IncKBHit() {
	if m != nil {
		m.KBHits.Inc()
	}
}

// IncRefusal records one access-control refusal.
func (m *Metrics) IncRefusal() {
	if m != nil {
		m.Refusals.Inc()
	}
}

// IncProviderAttempt records one tier attempt with its outcome label.
func (m *Metrics) IncProviderAttempt(tier, outcome string) {
	if m != nil {
		m.ProviderAttempts.WithLabelValues(tier, outcome).Inc()
	}
}

// IncAggregateFailure records one all-tiers-failed generation.
func (m *Metrics) IncAggregateFailure() {
	if m != nil {
		m.AggregateFailures.Inc()
	}
}

// ObserveProviderLatency records the duration of one provider call.
func (m *Metrics) ObserveProviderLatency(seconds float64) {
	if m != nil {
		m.ProviderLatency.Observe(seconds)
	}
}
