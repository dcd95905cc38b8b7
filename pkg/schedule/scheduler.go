// Package schedule decides how long an endpoint monitor should wait between
// polls, based on incident activity and recent fetch failures.
package schedule

import (
	"time"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

// State is the scheduler's view of the monitored page.
type State string

const (
	// StateCalm means the latest snapshot had no unresolved incidents.
	StateCalm State = "calm"
	// StateActive means at least one incident is unresolved.
	StateActive State = "active"
)

const backoffFactor = 2

// Scheduler is the per-endpoint poll interval state machine. It polls fast
// while incidents are active, slow while calm, and backs off exponentially on
// consecutive fetch failures. A Scheduler is owned by exactly one monitor and
// is not safe for concurrent use.
type Scheduler struct {
	intervals types.Intervals
	state     State
	failures  int
}

// NewScheduler creates a Scheduler starting in the calm state.
func NewScheduler(intervals types.Intervals) *Scheduler {
	return &Scheduler{
		intervals: intervals,
		state:     StateCalm,
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return s.state
}

// Observe transitions the state based on a freshly observed snapshot.
func (s *Scheduler) Observe(snap *snapshot.Snapshot) {
	if snap.UnresolvedCount() > 0 {
		s.state = StateActive
	} else {
		s.state = StateCalm
	}
}

// Success resets the failure backoff; the next delay returns to the
// state-appropriate base.
func (s *Scheduler) Success() {
	s.failures = 0
}

// Failure records a failed fetch, doubling the next delay up to the cap.
func (s *Scheduler) Failure() {
	s.failures++
}

// NextDelay returns the delay before the next poll. The result is always
// within [Floor(), MaxBackoff]. A configured fixed interval pins the base
// delay regardless of state; backoff still applies on failures.
func (s *Scheduler) NextDelay() time.Duration {
	delay := s.base()
	for i := 1; i < s.failures; i++ {
		delay *= backoffFactor
		if delay >= s.intervals.MaxBackoff {
			return s.intervals.MaxBackoff
		}
	}
	if delay > s.intervals.MaxBackoff {
		return s.intervals.MaxBackoff
	}
	return delay
}

func (s *Scheduler) base() time.Duration {
	if s.intervals.Fixed > 0 {
		return s.intervals.Fixed
	}
	if s.state == StateActive {
		return s.intervals.Active
	}
	return s.intervals.Calm
}
