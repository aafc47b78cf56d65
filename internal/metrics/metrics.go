// Package metrics exposes Prometheus collectors for the webhook.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voice_agent"

// Webhook request outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeDetectionFailed = "detection_failed"
	OutcomeRateLimited     = "rate_limited"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeInternalError   = "internal_error"
)

type Metrics struct {
	requests   *prometheus.CounterVec
	languages  *prometheus.CounterVec
	completion *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_requests_total",
				Help:      "Webhook requests by outcome.",
			},
			[]string{"outcome"},
		),
		languages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detected_language_total",
				Help:      "Reply language chosen per request.",
			},
			[]string{"language"},
		),
		completion: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Latency of upstream chat completions.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"status"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.languages, m.completion} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLanguage(code string) {
	m.languages.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveCompletion(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.completion.WithLabelValues(status).Observe(d.Seconds())
}
