package poll

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts poll activity. A nil *Metrics records nothing.
type Metrics struct {
	ticks   *prometheus.CounterVec
	skipped *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

// NewMetrics creates the poll collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "livedash",
				Subsystem: "poll",
				Name:      "ticks_total",
				Help:      "Total number of poll callbacks invoked",
			},
			[]string{"poll"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "livedash",
				Subsystem: "poll",
				Name:      "skipped_total",
				Help:      "Ticks dropped because a callback was still running",
			},
			[]string{"poll"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "livedash",
				Subsystem: "poll",
				Name:      "errors_total",
				Help:      "Poll callbacks that returned an error",
			},
			[]string{"poll"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.skipped, m.errors)
	}
	return m
}

func (m *Metrics) tick(name string) {
	if m != nil {
		m.ticks.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) skip(name string) {
	if m != nil {
		m.skipped.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) fail(name string) {
	if m != nil {
		m.errors.WithLabelValues(name).Inc()
	}
}
