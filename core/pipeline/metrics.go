package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records producer latencies and failures
type Metrics struct {
	AnswerLatency  *prometheus.HistogramVec
	AnswerFailures *prometheus.CounterVec
}

// NewMetrics registers the producer metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnswerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geobench_answer_duration_seconds",
			Help:    "Duration of answering one question by strategy and difficulty",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy", "difficulty"}),

		AnswerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "geobench_answer_failures_total",
			Help: "Producer errors and panics by strategy",
		}, []string{"strategy"}),
	}
}

// ObserveAnswer records the duration of one answer
func (m *Metrics) ObserveAnswer(strategy string, difficulty string, d time.Duration) {
	if m != nil {
		m.AnswerLatency.WithLabelValues(strategy, difficulty).Observe(d.Seconds())
	}
}

// IncrementFailure records a failed answer
func (m *Metrics) IncrementFailure(strategy string) {
	if m != nil {
		m.AnswerFailures.WithLabelValues(strategy).Inc()
	}
}
