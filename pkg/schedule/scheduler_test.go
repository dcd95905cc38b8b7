package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

var testIntervals = types.Intervals{
	Active:     15 * time.Second,
	Calm:       60 * time.Second,
	MaxBackoff: 300 * time.Second,
}

func snapWithUnresolved(count int) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Incidents: make(map[string]snapshot.Incident, count)}
	for i := 0; i < count; i++ {
		id := string(rune('a' + i))
		snap.Incidents[id] = snapshot.Incident{ID: id, Status: types.StateInvestigating}
	}
	return snap
}

func TestScheduler_StateTransitions(t *testing.T) {
	scheduler := NewScheduler(testIntervals)
	assert.Equal(t, StateCalm, scheduler.State())
	assert.Equal(t, 60*time.Second, scheduler.NextDelay())

	scheduler.Observe(snapWithUnresolved(1))
	assert.Equal(t, StateActive, scheduler.State())
	assert.Equal(t, 15*time.Second, scheduler.NextDelay())

	scheduler.Observe(snapWithUnresolved(0))
	assert.Equal(t, StateCalm, scheduler.State())
	assert.Equal(t, 60*time.Second, scheduler.NextDelay())
}

func TestScheduler_BackoffProgression(t *testing.T) {
	scheduler := NewScheduler(testIntervals)
	scheduler.Observe(snapWithUnresolved(1)) // active, base 15s

	var delays []time.Duration
	for i := 0; i < 3; i++ {
		scheduler.Failure()
		delays = append(delays, scheduler.NextDelay())
	}
	assert.Equal(t, []time.Duration{15 * time.Second, 30 * time.Second, 60 * time.Second}, delays)

	scheduler.Success()
	assert.Equal(t, 15*time.Second, scheduler.NextDelay())

	scheduler.Observe(snapWithUnresolved(0))
	assert.Equal(t, 60*time.Second, scheduler.NextDelay())
}

func TestScheduler_BackoffCeiling(t *testing.T) {
	scheduler := NewScheduler(testIntervals)
	for i := 0; i < 20; i++ {
		scheduler.Failure()
	}
	assert.Equal(t, testIntervals.MaxBackoff, scheduler.NextDelay())
}

func TestScheduler_FixedIntervalOverride(t *testing.T) {
	intervals := testIntervals
	intervals.Fixed = 45 * time.Second
	scheduler := NewScheduler(intervals)

	assert.Equal(t, 45*time.Second, scheduler.NextDelay())

	// state transitions must not affect a pinned interval
	scheduler.Observe(snapWithUnresolved(1))
	assert.Equal(t, 45*time.Second, scheduler.NextDelay())

	// backoff still applies on failures
	scheduler.Failure()
	scheduler.Failure()
	assert.Equal(t, 90*time.Second, scheduler.NextDelay())
	scheduler.Success()
	assert.Equal(t, 45*time.Second, scheduler.NextDelay())
}

func TestScheduler_DelayAlwaysWithinBounds(t *testing.T) {
	scheduler := NewScheduler(testIntervals)
	floor := testIntervals.Floor()

	actions := []func(){
		func() { scheduler.Failure() },
		func() { scheduler.Observe(snapWithUnresolved(2)) },
		func() { scheduler.Failure() },
		func() { scheduler.Success() },
		func() { scheduler.Observe(snapWithUnresolved(0)) },
		func() { scheduler.Failure() },
		func() { scheduler.Failure() },
		func() { scheduler.Failure() },
		func() { scheduler.Failure() },
		func() { scheduler.Failure() },
	}
	for _, action := range actions {
		action()
		delay := scheduler.NextDelay()
		assert.GreaterOrEqual(t, delay, floor)
		assert.LessOrEqual(t, delay, testIntervals.MaxBackoff)
	}
}
