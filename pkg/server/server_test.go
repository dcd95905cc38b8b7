package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testSnapshot(unresolved int) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		FetchedAt:  time.Now(),
		PageStatus: types.ImpactNone,
		Components: map[string]snapshot.Component{
			"api": {ID: "api", Name: "API", Status: types.ComponentOperational},
		},
		Incidents: map[string]snapshot.Incident{},
	}
	for i := 0; i < unresolved; i++ {
		id := fmt.Sprintf("inc-%d", i)
		snap.Incidents[id] = snapshot.Incident{ID: id, Impact: types.ImpactMinor, Status: types.StateInvestigating}
		snap.PageStatus = types.ImpactMinor
	}
	return snap
}

func TestStore_RecordAndList(t *testing.T) {
	store := NewStore()
	store.RecordSnapshot("zeta", testSnapshot(0))
	store.RecordSnapshot("alpha", testSnapshot(2))
	store.RecordSnapshot("alpha", testSnapshot(1)) // latest write wins

	statuses := store.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha", statuses[0].Target)
	assert.Equal(t, "zeta", statuses[1].Target)
	assert.Equal(t, 1, statuses[0].UnresolvedIncidents)
	assert.Equal(t, types.ImpactMinor, statuses[0].PageStatus)
	assert.Equal(t, 1, statuses[0].Components)
}

func TestServer_StatusEndpoints(t *testing.T) {
	store := NewStore()
	store.RecordSnapshot("example", testSnapshot(1))
	srv := NewServer(store, NewHub(), quietLogger())

	testServer := httptest.NewServer(srv.setupRoutes())
	defer testServer.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("status", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var statuses []TargetStatus
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
		require.Len(t, statuses, 1)
		assert.Equal(t, "example", statuses[0].Target)
		assert.Equal(t, 1, statuses[0].UnresolvedIncidents)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestHub_ReplayBuffer(t *testing.T) {
	hub := NewHub()
	for i := 0; i < streamBufferSize+10; i++ {
		hub.Publish(fmt.Sprintf("line %d", i))
	}

	_, replay, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	require.Len(t, replay, streamBufferSize)
	assert.Equal(t, "line 10", replay[0])
	assert.Equal(t, fmt.Sprintf("line %d", streamBufferSize+9), replay[len(replay)-1])
}

func TestHub_LiveDelivery(t *testing.T) {
	hub := NewHub()
	lines, replay, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	assert.Empty(t, replay)

	hub.Publish("hello")

	select {
	case line := <-lines:
		assert.Equal(t, "hello", line)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published line")
	}
}

func TestHub_UnsubscribedClientNotDelivered(t *testing.T) {
	hub := NewHub()
	lines, _, unsubscribe := hub.Subscribe()
	unsubscribe()

	hub.Publish("after unsubscribe")

	select {
	case line := <-lines:
		t.Fatalf("received %q after unsubscribe", line)
	case <-time.After(20 * time.Millisecond):
	}
}
