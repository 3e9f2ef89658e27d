package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "care_matcher"

// Fallback reasons.
const (
	ReasonUnavailable = "unavailable"
	ReasonTimeout     = "timeout"
	ReasonMalformed   = "malformed_response"
	ReasonProvider    = "provider_error"
	ReasonOther       = "other"
)

// Recorder holds the ranking engine collectors. A nil Recorder records nothing.
type Recorder struct {
	evaluations *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	skipped     prometheus.Counter
	batches     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of candidate evaluations by score source",
			},
			[]string{"source"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of evaluations that fell back to the heuristic scorer",
			},
			[]string{"reason"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Candidate evaluation duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_candidates_total",
			Help:      "Total number of candidates skipped because their evaluation failed",
		}),
		batches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a full ranking run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(r.evaluations, r.fallbacks, r.duration, r.skipped, r.batches)
	}

	return r
}

func (r *Recorder) ObserveEvaluation(source string, d time.Duration) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(source).Inc()
	r.duration.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Recorder) Fallback(reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) Skipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

func (r *Recorder) ObserveBatch(d time.Duration) {
	if r == nil {
		return
	}
	r.batches.Observe(d.Seconds())
}
