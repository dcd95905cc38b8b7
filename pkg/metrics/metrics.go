// Package metrics exposes Prometheus instrumentation for the poll loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statuspage_polls_total",
		Help: "Number of poll cycles, by target and result (updated, unchanged, failed).",
	}, []string{"target", "result"})

	changeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statuspage_change_events_total",
		Help: "Number of change events emitted, by target and event type.",
	}, []string{"target", "type"})

	pollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statuspage_poll_errors_total",
		Help: "Number of failed poll cycles, by target and error kind.",
	}, []string{"target", "kind"})

	unresolvedIncidents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "statuspage_unresolved_incidents",
		Help: "Number of currently unresolved incidents per target.",
	}, []string{"target"})
)

// RecordPoll counts one completed poll cycle.
func RecordPoll(target, result string) {
	pollsTotal.WithLabelValues(target, result).Inc()
}

// RecordEvent counts one emitted change event.
func RecordEvent(target, eventType string) {
	changeEventsTotal.WithLabelValues(target, eventType).Inc()
}

// RecordError counts one failed poll cycle by error kind.
func RecordError(target, kind string) {
	pollErrorsTotal.WithLabelValues(target, kind).Inc()
}

// SetUnresolved records the current number of open incidents for a target.
func SetUnresolved(target string, count int) {
	unresolvedIncidents.WithLabelValues(target).Set(float64(count))
}
