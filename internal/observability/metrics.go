// Package observability collects Prometheus metrics for the engine's
// hot paths: event flow, work-queue churn and poller cadence.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. Nil-safe: every
// recording method on a nil *Metrics is a no-op, so components can
// carry an optional handle without guarding each call site.
type Metrics struct {
	// EventsEmitted counts events by type.
	EventsEmitted *prometheus.CounterVec

	// EventsResolved counts resolved events.
	EventsResolved prometheus.Counter

	// WorkEnqueued counts enqueued work items by priority.
	WorkEnqueued *prometheus.CounterVec

	// WorkCompleted counts completed work items.
	WorkCompleted prometheus.Counter

	// WorkFailed counts failed work items.
	WorkFailed prometheus.Counter

	// PollInterval is the adaptive poller's current interval in
	// seconds, per session.
	PollInterval *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commander_events_emitted_total",
			Help: "Events emitted, by event type.",
		}, []string{"type"}),
		EventsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commander_events_resolved_total",
			Help: "Events resolved.",
		}),
		WorkEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commander_work_enqueued_total",
			Help: "Work items enqueued, by priority.",
		}, []string{"priority"}),
		WorkCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commander_work_completed_total",
			Help: "Work items completed.",
		}),
		WorkFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commander_work_failed_total",
			Help: "Work items failed.",
		}),
		PollInterval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "commander_poll_interval_seconds",
			Help: "Current adaptive poll interval, per session.",
		}, []string{"session"}),
	}
	reg.MustRegister(
		m.EventsEmitted, m.EventsResolved,
		m.WorkEnqueued, m.WorkCompleted, m.WorkFailed,
		m.PollInterval,
	)
	return m
}

// EventEmitted records one emitted event.
func (m *Metrics) EventEmitted(eventType string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(eventType).Inc()
}

// EventResolved records one resolved event.
func (m *Metrics) EventResolved() {
	if m == nil {
		return
	}
	m.EventsResolved.Inc()
}

// WorkItemEnqueued records one enqueued work item.
func (m *Metrics) WorkItemEnqueued(priority string) {
	if m == nil {
		return
	}
	m.WorkEnqueued.WithLabelValues(priority).Inc()
}

// WorkItemCompleted records one completed work item.
func (m *Metrics) WorkItemCompleted() {
	if m == nil {
		return
	}
	m.WorkCompleted.Inc()
}

// WorkItemFailed records one failed work item.
func (m *Metrics) WorkItemFailed() {
	if m == nil {
		return
	}
	m.WorkFailed.Inc()
}

// SetPollInterval records a session's current poll interval.
func (m *Metrics) SetPollInterval(session string, seconds float64) {
	if m == nil {
		return
	}
	m.PollInterval.WithLabelValues(session).Set(seconds)
}
