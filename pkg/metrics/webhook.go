package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records processing outcomes for inbound payment events.
type WebhookMetrics struct {
	duration *prometheus.HistogramVec
	outcome  *prometheus.CounterVec
	counted  prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received, labeled by processing outcome.",
	}, []string{"source", "outcome"})
	counted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "donations_counted_total",
		Help: "Donations applied to team totals.",
	})
	reg.MustRegister(duration, outcome, counted)
	return &WebhookMetrics{
		duration: duration,
		outcome:  outcome,
		counted:  counted,
	}
}

// ObserveDuration records how long one event took to handle.
func (w *WebhookMetrics) ObserveDuration(source string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

// IncOutcome increments the event counter for one processing outcome.
func (w *WebhookMetrics) IncOutcome(source, outcome string) {
	if w == nil || w.outcome == nil {
		return
	}
	w.outcome.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncCounted increments the counted-donation counter.
func (w *WebhookMetrics) IncCounted() {
	if w == nil || w.counted == nil {
		return
	}
	w.counted.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
