package server

import (
	"sync"

	"statuspage-monitor/pkg/monitor"
)

// streamBufferSize is how many lines new stream clients get replayed.
const streamBufferSize = 500

// Hub broadcasts rendered event lines to connected stream clients and keeps
// a replay buffer for late joiners.
type Hub struct {
	mu      sync.Mutex
	buffer  []string
	clients map[chan string]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

// Publish appends a line to the replay buffer and fans it out to all
// connected clients. Slow clients drop lines rather than block publishers.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffer = append(h.buffer, line)
	if len(h.buffer) > streamBufferSize {
		h.buffer = h.buffer[len(h.buffer)-streamBufferSize:]
	}
	for client := range h.clients {
		select {
		case client <- line:
		default:
		}
	}
}

// Subscribe registers a client and returns its channel, a copy of the replay
// buffer, and an unsubscribe function.
func (h *Hub) Subscribe() (<-chan string, []string, func()) {
	client := make(chan string, 64)
	h.mu.Lock()
	replay := make([]string, len(h.buffer))
	copy(replay, h.buffer)
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}
	return client, replay, unsubscribe
}

// StreamSink adapts a Hub into a monitor event sink.
type StreamSink struct {
	hub *Hub
}

// NewStreamSink creates a sink publishing rendered event lines to hub.
func NewStreamSink(hub *Hub) *StreamSink {
	return &StreamSink{hub: hub}
}

func (s *StreamSink) Emit(event monitor.Event) {
	s.hub.Publish(monitor.RenderLine(event))
}
