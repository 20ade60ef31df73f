package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types pushed over the SSE stream
const (
	EventFleetChanged     = "fleet_changed"
	EventSelectionChanged = "selection_changed"
	EventActionState      = "action_state"
	EventImagesChanged    = "images_changed"
	EventActionCompleted  = "action_completed"
)

// SSEEvent одно событие для SSE клиентов
type SSEEvent struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEClient один подключённый SSE клиент
type SSEClient struct {
	events    chan SSEEvent
	eventType string // фильтр по типу события, "" = все события
}

// SSEHub рассылает события координатора всем подключённым клиентам
type SSEHub struct {
	mu      sync.RWMutex
	clients map[*SSEClient]bool
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[*SSEClient]bool),
	}
}

// AddClient registers a client, optionally filtered to one event type
func (h *SSEHub) AddClient(eventType string) *SSEClient {
	client := &SSEClient{
		events:    make(chan SSEEvent, 32),
		eventType: eventType,
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	return client
}

// RemoveClient unregisters a client and closes its channel
func (h *SSEHub) RemoveClient(client *SSEClient) {
	h.mu.Lock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.events)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers an event to every matching client. A client that
// cannot keep up loses events rather than stalling the coordinator.
func (h *SSEHub) Broadcast(event SSEEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.eventType != "" && client.eventType != event.Type {
			continue
		}
		select {
		case client.events <- event:
		default:
			// клиент не успевает, пропускаем событие
		}
	}
}

// HandleEvents обрабатывает SSE подключение
// GET /api/events?type=fleet_changed
func (h *SSEHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := h.AddClient(r.URL.Query().Get("type"))
	defer h.RemoveClient(client)

	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-client.events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
