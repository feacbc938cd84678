package downloader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resolutionSuccess   = "success"
	resolutionExhausted = "exhausted"
	resolutionInvalid   = "invalid"
	resolutionCancelled = "cancelled"
)

// Metrics holds the resolver's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	attempts    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	resolutions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teraplay",
			Name:      "resolver_attempts_total",
			Help:      "Resolver endpoint attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teraplay",
			Name:      "resolver_attempt_duration_seconds",
			Help:      "Time spent on a single resolver endpoint attempt.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"endpoint"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teraplay",
			Name:      "resolutions_total",
			Help:      "Link resolutions by final result.",
		}, []string{"result"}),
	}

	for _, collector := range []prometheus.Collector{m.attempts, m.duration, m.resolutions} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt(endpoint string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.attempts.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) observeResolution(result string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result).Inc()
}
