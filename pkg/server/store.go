package server

import (
	"sort"
	"sync"
	"time"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

// TargetStatus is the API view of one monitored target.
type TargetStatus struct {
	Target              string       `json:"target"`
	PageStatus          types.Impact `json:"page_status"`
	UnresolvedIncidents int          `json:"unresolved_incidents"`
	Components          int          `json:"components"`
	LastPolledAt        time.Time    `json:"last_polled_at"`
}

// Store holds the latest per-target status for the API. It is fed through
// the monitor.StatusRecorder interface and does its own locking; monitors
// themselves remain share-nothing.
type Store struct {
	mu       sync.RWMutex
	statuses map[string]TargetStatus
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{statuses: make(map[string]TargetStatus)}
}

// RecordSnapshot updates the stored status for a target.
func (s *Store) RecordSnapshot(target string, snap *snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[target] = TargetStatus{
		Target:              target,
		PageStatus:          snap.PageStatus,
		UnresolvedIncidents: snap.UnresolvedCount(),
		Components:          len(snap.Components),
		LastPolledAt:        time.Now(),
	}
}

// Statuses returns the stored statuses ordered by target name.
func (s *Store) Statuses() []TargetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	statuses := make([]TargetStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(a, b int) bool {
		return statuses[a].Target < statuses[b].Target
	})
	return statuses
}
