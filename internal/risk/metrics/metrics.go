// Package metrics provides observability for the risk evaluator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers evidence gathering and decision outcomes. All methods are
// nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	EvidenceLatency *prometheus.HistogramVec
	Outcome         *prometheus.CounterVec
	RiskScore       prometheus.Histogram
	EvaluateLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvidenceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vigil_risk_evidence_duration_seconds",
			Help:    "Duration of evidence gathering by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),

		Outcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_risk_outcomes_total",
			Help: "Evaluated orders by action",
		}, []string{"action"}),

		RiskScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_risk_score",
			Help:    "Distribution of clamped risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_risk_evaluate_duration_seconds",
			Help:    "Duration of full order evaluation including evidence gathering",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOutcome(action string) {
	if m != nil {
		m.Outcome.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) ObserveScore(score int) {
	if m != nil {
		m.RiskScore.Observe(float64(score))
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
