// Package monitor runs the per-endpoint poll loop and the supervisor that
// fans monitors out across targets.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"statuspage-monitor/pkg/diff"
	"statuspage-monitor/pkg/fetch"
	"statuspage-monitor/pkg/metrics"
	"statuspage-monitor/pkg/schedule"
	"statuspage-monitor/pkg/snapshot"
)

// StatusRecorder receives the latest snapshot after every successful poll.
// The local status API uses it to serve freshness without sharing monitor state.
type StatusRecorder interface {
	RecordSnapshot(target string, snap *snapshot.Snapshot)
}

// Monitor owns one endpoint's polling lifecycle: fetch, diff, emit,
// reschedule. All of its state (last snapshot, error count) is owned
// exclusively by the goroutine running Run, so no locking is needed.
type Monitor struct {
	target     string
	fetcher    *fetch.ConditionalFetcher
	scheduler  *schedule.Scheduler
	sink       Sink
	recorder   StatusRecorder
	log        *logrus.Entry
	last       *snapshot.Snapshot
	errorCount int
}

// New creates a Monitor for one target. recorder may be nil.
func New(target string, fetcher *fetch.ConditionalFetcher, scheduler *schedule.Scheduler, sink Sink, recorder StatusRecorder, log *logrus.Logger) *Monitor {
	return &Monitor{
		target:    target,
		fetcher:   fetcher,
		scheduler: scheduler,
		sink:      sink,
		recorder:  recorder,
		log:       log.WithField("target", target),
	}
}

// Target returns the monitor's target name.
func (m *Monitor) Target() string {
	return m.target
}

// Run polls until ctx is cancelled. The first poll happens immediately to
// establish the baseline; after that each cycle waits out the scheduler's
// delay. Fetch failures never terminate the loop.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info("Starting monitor")
	for {
		if ctx.Err() != nil {
			m.log.Info("Context canceled, stopping monitor")
			return
		}

		m.pollOnce(ctx)

		delay := m.scheduler.NextDelay()
		m.log.WithField("delay", delay).Debug("Waiting for next poll")
		select {
		case <-ctx.Done():
			m.log.Info("Context canceled, stopping monitor")
			return
		case <-time.After(delay):
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context) {
	result := m.fetcher.Poll(ctx)

	switch result.State {
	case fetch.Updated:
		merged := result.Snapshot.Merge(m.last)
		first := m.last == nil
		events := diff.Diff(m.last, merged)
		for i := range events {
			event := Event{Target: m.target, At: events[i].At, Change: &events[i]}
			m.sink.Emit(event)
			metrics.RecordEvent(m.target, string(events[i].Type))
		}
		m.last = merged
		m.errorCount = 0
		m.scheduler.Success()
		m.scheduler.Observe(merged)
		if m.recorder != nil {
			m.recorder.RecordSnapshot(m.target, merged)
		}
		metrics.RecordPoll(m.target, "updated")
		metrics.SetUnresolved(m.target, merged.UnresolvedCount())
		if first {
			m.log.WithFields(logrus.Fields{
				"components": len(merged.Components),
				"incidents":  len(merged.Incidents),
				"unresolved": merged.UnresolvedCount(),
			}).Info("Baseline established")
		} else {
			m.log.WithField("events", len(events)).Debug("Poll completed")
		}

	case fetch.Unchanged:
		m.errorCount = 0
		m.scheduler.Success()
		if m.recorder != nil && m.last != nil {
			m.recorder.RecordSnapshot(m.target, m.last)
		}
		metrics.RecordPoll(m.target, "unchanged")
		m.log.Debug("No changes upstream")

	case fetch.Failed:
		m.errorCount++
		m.scheduler.Failure()
		diagnostic := &Diagnostic{
			Kind:          result.Err.Kind,
			Err:           result.Err,
			CorrelationID: uuid.NewString(),
		}
		m.sink.Emit(Event{Target: m.target, At: time.Now(), Diagnostic: diagnostic})
		metrics.RecordPoll(m.target, "failed")
		metrics.RecordError(m.target, string(result.Err.Kind))
	}
}
