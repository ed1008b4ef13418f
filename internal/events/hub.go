package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"qc-analytics/internal/logging"
	"qc-analytics/internal/metrics"
)

// Event types published after successful mutations.
const (
	TypeSessionCreated = "session_created"
	TypeSessionEnded   = "session_ended"
	TypeRecordSaved    = "record_saved"
	TypeSettingSaved   = "setting_saved"
)

// Event is one change notification sent to every connected client.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub maintains connected clients and fans events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	now        func() time.Time
}

// NewHub creates a new event hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.EventClientsConnected.Inc()
			logging.Debug("Event client connected: %s", client.remoteAddr)

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			msg, err := json.Marshal(event)
			if err != nil {
				logging.Error("Failed to marshal event %s: %v", event.Type, err)
				continue
			}

			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logging.Warn("Dropping slow event client %s", client.remoteAddr)
				metrics.EventClientsDropped.Inc()
				h.removeClient(client)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				metrics.EventClientsConnected.Dec()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.EventClientsConnected.Dec()
		logging.Debug("Event client disconnected: %s", client.remoteAddr)
	}
}

// Publish queues an event for every connected client. It never blocks: when
// the queue is full the event is dropped and logged.
func (h *Hub) Publish(eventType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			logging.Error("Failed to marshal %s payload: %v", eventType, err)
			return
		}
		raw = b
	}

	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   raw,
		Timestamp: h.now().UTC(),
	}

	select {
	case h.broadcast <- event:
		metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
	default:
		logging.Warn("Event queue full, dropping %s event", eventType)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
