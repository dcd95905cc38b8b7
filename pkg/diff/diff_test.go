package diff

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

var (
	t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 = time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
)

func snapWith(fetchedAt time.Time, components []snapshot.Component, incidents []snapshot.Incident) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		FetchedAt:  fetchedAt,
		Components: make(map[string]snapshot.Component, len(components)),
		Incidents:  make(map[string]snapshot.Incident, len(incidents)),
	}
	for _, component := range components {
		snap.Components[component.ID] = component
	}
	for _, incident := range incidents {
		snap.Incidents[incident.ID] = incident
	}
	return snap
}

func openIncident(id, name string, impact types.Impact, state types.IncidentState, updates ...snapshot.IncidentUpdate) snapshot.Incident {
	return snapshot.Incident{ID: id, Name: name, Impact: impact, Status: state, Updates: updates}
}

func TestDiff_BaselineSuppression(t *testing.T) {
	cur := snapWith(t1,
		[]snapshot.Component{{ID: "api", Name: "API", Status: types.ComponentMajorOutage}},
		[]snapshot.Incident{openIncident("inc-1", "Outage", types.ImpactMajor, types.StateInvestigating)},
	)
	if events := Diff(nil, cur); len(events) != 0 {
		t.Errorf("Diff(nil, cur) = %d events, want 0", len(events))
	}
}

func TestDiff_Idempotence(t *testing.T) {
	snap := snapWith(t1,
		[]snapshot.Component{{ID: "api", Name: "API", Status: types.ComponentOperational}},
		[]snapshot.Incident{openIncident("inc-1", "Outage", types.ImpactMinor, types.StateMonitoring,
			snapshot.IncidentUpdate{ID: "u1", Status: types.StateMonitoring, CreatedAt: t0})},
	)
	if events := Diff(snap, snap); len(events) != 0 {
		t.Errorf("Diff(snap, snap) = %d events, want 0", len(events))
	}
}

func TestDiff_MonotonicIncidentDetection(t *testing.T) {
	prev := snapWith(t0, nil, []snapshot.Incident{
		openIncident("inc-1", "Existing", types.ImpactMinor, types.StateMonitoring),
	})
	cur := snapWith(t1, nil, []snapshot.Incident{
		openIncident("inc-1", "Existing", types.ImpactMinor, types.StateMonitoring),
		openIncident("inc-2", "New incident", types.ImpactMajor, types.StateInvestigating,
			snapshot.IncidentUpdate{ID: "u1", Body: "Looking into it.", Status: types.StateInvestigating, CreatedAt: t1}),
	})

	events := Diff(prev, cur)

	want := []ChangeEvent{
		{
			Type:    IncidentOpened,
			ID:      "inc-2",
			Name:    "New incident",
			At:      t1,
			Impact:  types.ImpactMajor,
			State:   types.StateInvestigating,
			Message: "Looking into it.",
		},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_ResolutionPrecedence(t *testing.T) {
	resolvedAt := t1
	prev := snapWith(t0, nil, []snapshot.Incident{
		openIncident("inc-1", "Outage", types.ImpactMajor, types.StateMonitoring,
			snapshot.IncidentUpdate{ID: "u1", Status: types.StateMonitoring, CreatedAt: t0}),
	})
	cur := snapWith(t1, nil, []snapshot.Incident{
		{
			ID: "inc-1", Name: "Outage", Impact: types.ImpactMajor, Status: types.StateResolved,
			ResolvedAt: &resolvedAt,
			Updates: []snapshot.IncidentUpdate{
				{ID: "u1", Status: types.StateMonitoring, CreatedAt: t0},
				{ID: "u2", Body: "Fixed.", Status: types.StateResolved, CreatedAt: t1},
			},
		},
	})

	events := Diff(prev, cur)

	if len(events) != 1 {
		t.Fatalf("Diff() = %d events, want 1", len(events))
	}
	if events[0].Type != IncidentResolved {
		t.Errorf("event type = %v, want %v", events[0].Type, IncidentResolved)
	}
	if events[0].Message != "Fixed." {
		t.Errorf("event message = %q, want %q", events[0].Message, "Fixed.")
	}
	for _, event := range events {
		if event.Type == IncidentUpdated && event.ID == "inc-1" {
			t.Error("resolution must not also produce IncidentUpdated for the same transition")
		}
	}
}

func TestDiff_IncidentUpdated(t *testing.T) {
	tests := []struct {
		name string
		prev snapshot.Incident
		cur  snapshot.Incident
		want int
	}{
		{
			name: "new update",
			prev: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateInvestigating,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0}),
			cur: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateInvestigating,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0},
				snapshot.IncidentUpdate{ID: "u2", Body: "Root cause found.", Status: types.StateInvestigating, CreatedAt: t1}),
			want: 1,
		},
		{
			name: "status change without new update",
			prev: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateInvestigating,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0}),
			cur: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateIdentified,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0}),
			want: 1,
		},
		{
			name: "no progress",
			prev: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateInvestigating,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0}),
			cur: openIncident("inc-1", "Outage", types.ImpactMinor, types.StateInvestigating,
				snapshot.IncidentUpdate{ID: "u1", Status: types.StateInvestigating, CreatedAt: t0}),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := snapWith(t0, nil, []snapshot.Incident{tt.prev})
			cur := snapWith(t1, nil, []snapshot.Incident{tt.cur})
			events := Diff(prev, cur)
			if len(events) != tt.want {
				t.Fatalf("Diff() = %d events, want %d", len(events), tt.want)
			}
			if tt.want == 1 && events[0].Type != IncidentUpdated {
				t.Errorf("event type = %v, want %v", events[0].Type, IncidentUpdated)
			}
		})
	}
}

func TestDiff_Scenario(t *testing.T) {
	// snapshot1: api operational, no incidents.
	// snapshot2: api degraded, one new minor incident.
	prev := snapWith(t0,
		[]snapshot.Component{{ID: "api", Name: "API", Status: types.ComponentOperational}},
		nil,
	)
	cur := snapWith(t1,
		[]snapshot.Component{{ID: "api", Name: "API", Status: types.ComponentDegradedPerformance}},
		[]snapshot.Incident{openIncident("inc-1", "Elevated errors", types.ImpactMinor, types.StateInvestigating)},
	)

	events := Diff(prev, cur)

	want := []ChangeEvent{
		{
			Type:   IncidentOpened,
			ID:     "inc-1",
			Name:   "Elevated errors",
			At:     t1,
			Impact: types.ImpactMinor,
			State:  types.StateInvestigating,
		},
		{
			Type:      ComponentChanged,
			ID:        "api",
			Name:      "API",
			At:        t1,
			OldStatus: types.ComponentOperational,
			NewStatus: types.ComponentDegradedPerformance,
		},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_OrderingWithinCategories(t *testing.T) {
	prev := snapWith(t0,
		[]snapshot.Component{
			{ID: "a", Name: "A", Status: types.ComponentOperational},
			{ID: "b", Name: "B", Status: types.ComponentOperational},
		},
		nil,
	)
	cur := snapWith(t1,
		[]snapshot.Component{
			{ID: "a", Name: "A", Status: types.ComponentMajorOutage},
			{ID: "b", Name: "B", Status: types.ComponentPartialOutage},
		},
		[]snapshot.Incident{
			openIncident("inc-b", "Second", types.ImpactMinor, types.StateInvestigating),
			openIncident("inc-a", "First", types.ImpactMajor, types.StateInvestigating),
		},
	)

	events := Diff(prev, cur)

	gotOrder := make([]string, 0, len(events))
	for _, event := range events {
		gotOrder = append(gotOrder, string(event.Type)+":"+event.ID)
	}
	wantOrder := []string{
		"incident_opened:inc-a",
		"incident_opened:inc-b",
		"component_status_changed:a",
		"component_status_changed:b",
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_DisappearedComponentAndIncident(t *testing.T) {
	prev := snapWith(t0,
		[]snapshot.Component{{ID: "gone", Name: "Gone", Status: types.ComponentOperational}},
		[]snapshot.Incident{openIncident("inc-gone", "Vanished", types.ImpactMinor, types.StateInvestigating)},
	)
	cur := snapWith(t1, nil, nil)

	if events := Diff(prev, cur); len(events) != 0 {
		t.Errorf("Diff() = %d events, want 0 (absence is not classified)", len(events))
	}
}
