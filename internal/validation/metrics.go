package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks cache behaviour for the validation result store. A nil
// *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_validation_cache_hits_total",
			Help: "Validation results served from cache.",
		}, []string{"namespace"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_validation_cache_misses_total",
			Help: "Validation requests that required a fresh compute.",
		}, []string{"namespace"}),
		writeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_validation_cache_write_failures_total",
			Help: "Asynchronous cache write-backs that failed.",
		}, []string{"namespace"}),
	}
}

func (m *Metrics) CacheHit(namespace string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(namespace).Inc()
}

func (m *Metrics) CacheMiss(namespace string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(namespace).Inc()
}

func (m *Metrics) WriteFailure(namespace string) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues(namespace).Inc()
}
