package requests

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Response outcomes recorded by Metrics.
const (
	outcomeAccepted = "accepted"
	outcomeStale    = "stale"
	outcomeError    = "error"
)

// Metrics instruments one or more managers. A nil *Metrics records nothing.
type Metrics struct {
	sent      *prometheus.CounterVec
	responses *prometheus.CounterVec
	roundTrip *prometheus.HistogramVec
	inflight  *prometheus.GaugeVec
}

// NewMetrics creates the request collectors and registers them with reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "livedash",
				Subsystem: "requests",
				Name:      "sent_total",
				Help:      "Total number of backend requests issued",
			},
			[]string{"endpoint"},
		),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "livedash",
				Subsystem: "requests",
				Name:      "responses_total",
				Help:      "Backend responses by outcome (accepted, stale, error)",
			},
			[]string{"endpoint", "outcome"},
		),
		roundTrip: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "livedash",
				Subsystem: "requests",
				Name:      "round_trip_seconds",
				Help:      "Duration of backend requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "livedash",
				Subsystem: "requests",
				Name:      "inflight",
				Help:      "Backend requests currently in flight",
			},
			[]string{"endpoint"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.sent, m.responses, m.roundTrip, m.inflight)
	}
	return m
}

func (m *Metrics) issued(endpoint string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(endpoint).Inc()
	m.inflight.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) returned(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(endpoint).Dec()
	m.roundTrip.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) outcome(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(endpoint, outcome).Inc()
}
