package monitor

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"statuspage-monitor/pkg/fetch"
	"statuspage-monitor/pkg/schedule"
	"statuspage-monitor/pkg/types"
)

// Supervisor fans out one goroutine per monitor and isolates per-monitor
// faults: a panic in one monitor is reported as a diagnostic and never
// terminates its siblings.
type Supervisor struct {
	log  *logrus.Logger
	sink Sink
}

// NewSupervisor creates a Supervisor emitting fault diagnostics to sink.
func NewSupervisor(log *logrus.Logger, sink Sink) *Supervisor {
	return &Supervisor{log: log, sink: sink}
}

// BuildMonitors constructs a monitor per valid target. An invalid target is
// reported as a diagnostic and skipped; the remaining targets proceed.
func (s *Supervisor) BuildMonitors(targets []types.Target, intervals types.Intervals, doer fetch.Doer, recorder StatusRecorder) []*Monitor {
	monitors := make([]*Monitor, 0, len(targets))
	for _, target := range targets {
		parsed, err := url.Parse(target.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			s.reportFault(target.Name, fmt.Errorf("invalid target url %q", target.URL))
			continue
		}
		fetcher := fetch.NewConditionalFetcher(target.URL, doer)
		scheduler := schedule.NewScheduler(intervals)
		monitors = append(monitors, New(target.Name, fetcher, scheduler, s.sink, recorder, s.log))
	}
	return monitors
}

// Run starts every monitor concurrently and blocks until all of them have
// stopped after ctx cancellation.
func (s *Supervisor) Run(ctx context.Context, monitors []*Monitor) {
	s.log.Infof("Starting %d monitors", len(monitors))

	var wg sync.WaitGroup
	for _, m := range monitors {
		wg.Add(1)
		go func(m *Monitor) {
			defer wg.Done()
			defer s.recoverMonitor(m)
			m.Run(ctx)
		}(m)
	}
	wg.Wait()

	s.log.Info("All monitors stopped")
}

// recoverMonitor contains a panicking monitor so its siblings keep running.
func (s *Supervisor) recoverMonitor(m *Monitor) {
	if r := recover(); r != nil {
		correlationID := uuid.NewString()
		s.log.WithFields(logrus.Fields{
			"target":         m.Target(),
			"correlation_id": correlationID,
			"panic":          fmt.Sprintf("%v", r),
			"stack":          string(debug.Stack()),
		}).Error("Monitor panicked, siblings unaffected")
		s.sink.Emit(Event{
			Target: m.Target(),
			At:     time.Now(),
			Diagnostic: &Diagnostic{
				Err:           fmt.Errorf("monitor panic: %v", r),
				CorrelationID: correlationID,
			},
		})
	}
}

func (s *Supervisor) reportFault(target string, err error) {
	correlationID := uuid.NewString()
	s.log.WithFields(logrus.Fields{
		"target":         target,
		"correlation_id": correlationID,
		"error":          err,
	}).Error("Skipping target")
	s.sink.Emit(Event{
		Target: target,
		At:     time.Now(),
		Diagnostic: &Diagnostic{
			Err:           err,
			CorrelationID: correlationID,
		},
	})
}
