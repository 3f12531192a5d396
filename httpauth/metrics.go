package httpauth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "accesstoken"

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeMissing   = "missing"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeForbidden = "forbidden"
)

// Metrics holds the prometheus collectors fed by a Guard.
type Metrics struct {
	Validations *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of access token checks, labeled by outcome and reason.",
			},
			[]string{"outcome", "reason"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent authenticating a request (seconds).",
				Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Validations, m.Duration)
	}
	return m
}

func (m *Metrics) observe(outcome, reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(outcome, reason).Inc()
	m.Duration.Observe(d.Seconds())
}
