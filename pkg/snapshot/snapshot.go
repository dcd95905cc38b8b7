package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"statuspage-monitor/pkg/types"
)

// Component is the parsed state of one status-page component.
type Component struct {
	ID     string
	Name   string
	Status types.ComponentStatus
}

// IncidentUpdate is one update posted to an incident. Updates are never
// mutated after creation; an incident's update list only grows.
type IncidentUpdate struct {
	ID        string
	Body      string
	Status    types.IncidentState
	CreatedAt time.Time
}

// Incident is the parsed state of one incident, with updates ordered by
// CreatedAt ascending.
type Incident struct {
	ID         string
	Name       string
	Impact     types.Impact
	Status     types.IncidentState
	CreatedAt  time.Time
	Updates    []IncidentUpdate
	ResolvedAt *time.Time
}

// Unresolved reports whether the incident is still open.
func (i Incident) Unresolved() bool {
	return i.ResolvedAt == nil && !i.Status.Terminal()
}

// LatestUpdate returns the most recent update, or nil if there are none.
func (i Incident) LatestUpdate() *IncidentUpdate {
	if len(i.Updates) == 0 {
		return nil
	}
	return &i.Updates[len(i.Updates)-1]
}

// Snapshot is an immutable point-in-time view of a status page. Each poll
// produces a brand-new Snapshot; nothing here is mutated after construction.
type Snapshot struct {
	FetchedAt  time.Time
	PageStatus types.Impact
	Components map[string]Component
	Incidents  map[string]Incident
}

// Parse decodes summary and incidents payloads into a Snapshot.
func Parse(summaryBody, incidentsBody []byte, fetchedAt time.Time) (*Snapshot, error) {
	var summary types.SummaryResponse
	if err := json.Unmarshal(summaryBody, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary payload: %w", err)
	}

	var incidents types.IncidentsResponse
	if err := json.Unmarshal(incidentsBody, &incidents); err != nil {
		return nil, fmt.Errorf("failed to decode incidents payload: %w", err)
	}

	snap := &Snapshot{
		FetchedAt:  fetchedAt,
		PageStatus: types.ImpactNone,
		Components: make(map[string]Component, len(summary.Components)),
		Incidents:  make(map[string]Incident, len(incidents.Incidents)),
	}

	for _, component := range summary.Components {
		snap.Components[component.ID] = Component{
			ID:     component.ID,
			Name:   component.Name,
			Status: component.Status,
		}
	}

	for _, incident := range incidents.Incidents {
		updates := make([]IncidentUpdate, 0, len(incident.IncidentUpdates))
		for _, update := range incident.IncidentUpdates {
			updates = append(updates, IncidentUpdate{
				ID:        update.ID,
				Body:      update.Body,
				Status:    update.Status,
				CreatedAt: update.CreatedAt,
			})
		}
		// the feed serves updates newest-first
		sort.Slice(updates, func(a, b int) bool {
			return updates[a].CreatedAt.Before(updates[b].CreatedAt)
		})

		snap.Incidents[incident.ID] = Incident{
			ID:         incident.ID,
			Name:       incident.Name,
			Impact:     incident.Impact,
			Status:     incident.Status,
			CreatedAt:  incident.CreatedAt,
			Updates:    updates,
			ResolvedAt: incident.ResolvedAt,
		}
	}

	snap.PageStatus = derivePageStatus(snap.Incidents)

	return snap, nil
}

// Merge returns a new Snapshot that carries forward previously-seen
// unresolved incidents that are absent from this snapshot's feed. An
// incident, once seen, is never silently dropped while still open.
// Neither input is modified.
func (s *Snapshot) Merge(prev *Snapshot) *Snapshot {
	if prev == nil {
		return s
	}

	merged := &Snapshot{
		FetchedAt:  s.FetchedAt,
		Components: s.Components,
		Incidents:  make(map[string]Incident, len(s.Incidents)),
	}
	for id, incident := range s.Incidents {
		merged.Incidents[id] = incident
	}
	for id, incident := range prev.Incidents {
		if _, ok := merged.Incidents[id]; !ok && incident.Unresolved() {
			merged.Incidents[id] = incident
		}
	}
	merged.PageStatus = derivePageStatus(merged.Incidents)

	return merged
}

// UnresolvedCount returns the number of incidents still open.
func (s *Snapshot) UnresolvedCount() int {
	count := 0
	for _, incident := range s.Incidents {
		if incident.Unresolved() {
			count++
		}
	}
	return count
}

// derivePageStatus rolls up the highest impact among unresolved incidents.
func derivePageStatus(incidents map[string]Incident) types.Impact {
	status := types.ImpactNone
	for _, incident := range incidents {
		if incident.Unresolved() && types.ImpactLevel(incident.Impact) > types.ImpactLevel(status) {
			status = incident.Impact
		}
	}
	return status
}
