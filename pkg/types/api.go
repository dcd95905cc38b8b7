package types

import "time"

// SummaryResponse is the payload of a status page's /api/v2/summary.json endpoint.
type SummaryResponse struct {
	Page       PageInfo           `json:"page"`
	Status     PageStatus         `json:"status"`
	Components []SummaryComponent `json:"components"`
}

// PageInfo identifies the status page itself.
type PageInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageStatus is the page-wide rollup reported in the summary payload.
type PageStatus struct {
	Indicator   string `json:"indicator"`
	Description string `json:"description"`
}

// SummaryComponent is one component entry in the summary payload.
type SummaryComponent struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Status ComponentStatus `json:"status"`
}

// IncidentsResponse is the payload of a status page's /api/v2/incidents.json endpoint.
type IncidentsResponse struct {
	Incidents []APIIncident `json:"incidents"`
}

// APIIncident is one incident entry in the incidents payload.
type APIIncident struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Impact          Impact              `json:"impact"`
	Status          IncidentState       `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ResolvedAt      *time.Time          `json:"resolved_at"`
	IncidentUpdates []APIIncidentUpdate `json:"incident_updates"`
}

// APIIncidentUpdate is one update entry embedded in an incident.
// The feed serves updates newest-first.
type APIIncidentUpdate struct {
	ID        string        `json:"id"`
	Body      string        `json:"body"`
	Status    IncidentState `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
