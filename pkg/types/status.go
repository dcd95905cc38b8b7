package types

// ComponentStatus is the health state of a single status-page component.
type ComponentStatus string

const (
	ComponentOperational         ComponentStatus = "operational"
	ComponentDegradedPerformance ComponentStatus = "degraded_performance"
	ComponentPartialOutage       ComponentStatus = "partial_outage"
	ComponentMajorOutage         ComponentStatus = "major_outage"
	ComponentUnderMaintenance    ComponentStatus = "under_maintenance"
)

// IsValidComponentStatus checks if the provided string is one of the five component states.
func IsValidComponentStatus(status string) bool {
	switch ComponentStatus(status) {
	case ComponentOperational, ComponentDegradedPerformance, ComponentPartialOutage, ComponentMajorOutage, ComponentUnderMaintenance:
		return true
	default:
		return false
	}
}

// Impact is the severity of an incident as reported by the status page.
type Impact string

const (
	ImpactNone     Impact = "none"
	ImpactMinor    Impact = "minor"
	ImpactMajor    Impact = "major"
	ImpactCritical Impact = "critical"
)

// ImpactLevel returns a numeric value for impact comparison (higher = more severe).
func ImpactLevel(impact Impact) int {
	switch impact {
	case ImpactCritical:
		return 3
	case ImpactMajor:
		return 2
	case ImpactMinor:
		return 1
	default:
		return 0
	}
}

// IncidentState is the lifecycle state of an incident.
type IncidentState string

const (
	StateInvestigating IncidentState = "investigating"
	StateIdentified    IncidentState = "identified"
	StateMonitoring    IncidentState = "monitoring"
	StateResolved      IncidentState = "resolved"
	StatePostmortem    IncidentState = "postmortem"
)

// Terminal reports whether the state marks the end of an incident's lifecycle.
func (s IncidentState) Terminal() bool {
	return s == StateResolved || s == StatePostmortem
}
