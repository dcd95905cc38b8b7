package monitor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"statuspage-monitor/pkg/diff"
	"statuspage-monitor/pkg/fetch"
)

// Event is what a monitor emits: either a classified change or a diagnostic.
// Exactly one of Change and Diagnostic is set.
type Event struct {
	Target     string
	At         time.Time
	Change     *diff.ChangeEvent
	Diagnostic *Diagnostic
}

// Diagnostic describes a non-change observation, such as a failed poll cycle
// or an isolated monitor fault. CorrelationID ties log lines, metrics, and
// stream output for the same occurrence together.
type Diagnostic struct {
	Kind          fetch.ErrorKind
	Err           error
	CorrelationID string
}

// Sink consumes events from monitors. Implementations must tolerate being
// called from multiple monitor goroutines.
type Sink interface {
	Emit(event Event)
}

// MultiSink fans out each event to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(event Event) {
	for _, sink := range m {
		sink.Emit(event)
	}
}

// LogSink renders events through logrus. It is the default console output.
type LogSink struct {
	log *logrus.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(event Event) {
	if event.Diagnostic != nil {
		s.log.WithFields(logrus.Fields{
			"target":         event.Target,
			"kind":           event.Diagnostic.Kind,
			"error":          event.Diagnostic.Err,
			"correlation_id": event.Diagnostic.CorrelationID,
		}).Warn("Poll cycle failed")
		return
	}

	change := event.Change
	fields := logrus.Fields{
		"target": event.Target,
		"id":     change.ID,
		"name":   change.Name,
	}
	switch change.Type {
	case diff.IncidentOpened:
		fields["impact"] = change.Impact
		fields["status"] = change.State
		s.log.WithFields(fields).Warn("New incident")
	case diff.IncidentUpdated:
		fields["status"] = change.State
		s.log.WithFields(fields).Info("Incident update")
	case diff.IncidentResolved:
		s.log.WithFields(fields).Info("Incident resolved")
	case diff.ComponentChanged:
		fields["change"] = fmt.Sprintf("%s -> %s", change.OldStatus, change.NewStatus)
		s.log.WithFields(fields).Warn("Component status change")
	}
}

// RenderLine formats an event as a single human-readable line, shared by the
// event stream and the replay output.
func RenderLine(event Event) string {
	timestamp := event.At.Format("2006-01-02 15:04:05")
	if event.Diagnostic != nil {
		return fmt.Sprintf("[%s] %s: poll failed (%s): %v", timestamp, event.Target, event.Diagnostic.Kind, event.Diagnostic.Err)
	}

	change := event.Change
	switch change.Type {
	case diff.IncidentOpened:
		return fmt.Sprintf("[%s] %s: NEW INCIDENT %q impact=%s status=%s", timestamp, event.Target, change.Name, change.Impact, change.State)
	case diff.IncidentUpdated:
		return fmt.Sprintf("[%s] %s: UPDATE %q status=%s", timestamp, event.Target, change.Name, change.State)
	case diff.IncidentResolved:
		return fmt.Sprintf("[%s] %s: RESOLVED %q", timestamp, event.Target, change.Name)
	case diff.ComponentChanged:
		return fmt.Sprintf("[%s] %s: COMPONENT %q %s -> %s", timestamp, event.Target, change.Name, change.OldStatus, change.NewStatus)
	}
	return fmt.Sprintf("[%s] %s: %s %s", timestamp, event.Target, change.Type, change.ID)
}
