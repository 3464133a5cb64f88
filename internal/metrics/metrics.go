// Package metrics defines the Prometheus collectors of the verification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Final verdicts by status
	Verifications *prometheus.CounterVec

	// Stage latencies: dns_a, dns_mx, smtp, catch_all
	StageLatency *prometheus.HistogramVec

	// RCPT TO outcomes by class
	SMTPReplies *prometheus.CounterVec

	// Addresses that hit the per-item deadline
	ItemTimeouts prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailprobe_verifications_total",
			Help: "Total verified addresses by final status",
		}, []string{"status"}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailprobe_stage_duration_seconds",
			Help:    "Duration of network pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		SMTPReplies: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailprobe_smtp_replies_total",
			Help: "SMTP probe outcomes by class (accepted, rejected, temporary, uncertain, connect, timeout, ...)",
		}, []string{"class"}),

		ItemTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "mailprobe_item_timeouts_total",
			Help: "Addresses whose verification exceeded the per-item deadline",
		}),
	}
}

// IncrementVerification records a final verdict.
func (m *Metrics) IncrementVerification(status string) {
	if m != nil {
		m.Verifications.WithLabelValues(status).Inc()
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementSMTPReply records a probe outcome class.
func (m *Metrics) IncrementSMTPReply(class string) {
	if m != nil {
		m.SMTPReplies.WithLabelValues(class).Inc()
	}
}

// IncrementItemTimeout records an address that ran out of time.
func (m *Metrics) IncrementItemTimeout() {
	if m != nil {
		m.ItemTimeouts.Inc()
	}
}
