// Package diff classifies what changed between two successive snapshots of
// the same status page.
package diff

import (
	"sort"
	"time"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

// EventType tags the kind of change a ChangeEvent describes.
type EventType string

const (
	IncidentOpened   EventType = "incident_opened"
	IncidentUpdated  EventType = "incident_updated"
	IncidentResolved EventType = "incident_resolved"
	ComponentChanged EventType = "component_status_changed"
)

// ChangeEvent is a single classified difference between two snapshots.
// ID names the incident or component the event is about.
type ChangeEvent struct {
	Type EventType
	ID   string
	Name string
	At   time.Time

	// incident fields
	Impact     types.Impact
	State      types.IncidentState
	Message    string
	ResolvedAt *time.Time

	// component fields
	OldStatus types.ComponentStatus
	NewStatus types.ComponentStatus
}

// Diff compares two snapshots and returns the changes between them, in the
// fixed order opened, updated/resolved, component-changed, each category
// sorted by entity id ascending. A nil previous snapshot establishes a
// baseline and produces no events. Diff is pure: neither input is modified.
func Diff(prev, cur *snapshot.Snapshot) []ChangeEvent {
	if prev == nil {
		return nil
	}

	var opened, progressed, componentChanges []ChangeEvent

	for id, incident := range cur.Incidents {
		before, known := prev.Incidents[id]
		if !known {
			opened = append(opened, incidentEvent(IncidentOpened, incident, cur.FetchedAt))
			continue
		}

		if before.ResolvedAt == nil && incident.ResolvedAt != nil {
			// resolution is the terminal classification for this cycle
			progressed = append(progressed, incidentEvent(IncidentResolved, incident, cur.FetchedAt))
			continue
		}
		if incidentProgressed(before, incident) {
			progressed = append(progressed, incidentEvent(IncidentUpdated, incident, cur.FetchedAt))
		}
	}

	for id, component := range cur.Components {
		before, known := prev.Components[id]
		if !known || before.Status == component.Status {
			continue
		}
		componentChanges = append(componentChanges, ChangeEvent{
			Type:      ComponentChanged,
			ID:        id,
			Name:      component.Name,
			At:        cur.FetchedAt,
			OldStatus: before.Status,
			NewStatus: component.Status,
		})
	}

	sortByID(opened)
	sortByID(progressed)
	sortByID(componentChanges)

	events := make([]ChangeEvent, 0, len(opened)+len(progressed)+len(componentChanges))
	events = append(events, opened...)
	events = append(events, progressed...)
	events = append(events, componentChanges...)
	if len(events) == 0 {
		return nil
	}
	return events
}

// incidentProgressed reports whether an incident gained an update or changed state.
func incidentProgressed(before, after snapshot.Incident) bool {
	if before.Status != after.Status {
		return true
	}
	beforeLatest, afterLatest := before.LatestUpdate(), after.LatestUpdate()
	if afterLatest == nil {
		return false
	}
	return beforeLatest == nil || afterLatest.CreatedAt.After(beforeLatest.CreatedAt)
}

func incidentEvent(eventType EventType, incident snapshot.Incident, at time.Time) ChangeEvent {
	event := ChangeEvent{
		Type:       eventType,
		ID:         incident.ID,
		Name:       incident.Name,
		At:         at,
		Impact:     incident.Impact,
		State:      incident.Status,
		ResolvedAt: incident.ResolvedAt,
	}
	if latest := incident.LatestUpdate(); latest != nil {
		event.Message = latest.Body
	}
	return event
}

func sortByID(events []ChangeEvent) {
	sort.Slice(events, func(a, b int) bool {
		return events[a].ID < events[b].ID
	})
}
