package api

import (
	"net/http"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/coordinator"
	"github.com/pv/camfleet-go/internal/fleet"
)

// NewServer assembles the API routes
func NewServer(h *Handlers, hub *SSEHub) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/servers", h.GetServers)
	mux.HandleFunc("POST /api/servers", h.AddServers)
	mux.HandleFunc("DELETE /api/servers", h.RemoveServers)

	mux.HandleFunc("GET /api/selection", h.GetSelection)
	mux.HandleFunc("POST /api/selection", h.SetSelection)
	mux.HandleFunc("POST /api/selection/toggle", h.ToggleSelection)
	mux.HandleFunc("POST /api/selection/extend", h.ExtendSelection)

	mux.HandleFunc("POST /api/move/{direction}", h.Move)

	mux.HandleFunc("GET /api/actions", h.GetActions)
	mux.HandleFunc("POST /api/actions/{name}", h.InvokeAction)

	mux.HandleFunc("GET /api/images", h.GetImages)

	mux.HandleFunc("GET /api/journal", h.GetJournal)
	mux.HandleFunc("GET /api/journal/stats", h.GetJournalStats)

	mux.HandleFunc("GET /api/events", hub.HandleEvents)

	return mux
}

// Bind wires coordinator notifications into the SSE hub so every
// connected client sees state snapshots as they change.
func Bind(c *coordinator.Coordinator, hub *SSEHub) {
	c.SetCallbacks(coordinator.Callbacks{
		FleetChanged: func(entries []fleet.ServerEntry) {
			hub.Broadcast(SSEEvent{Type: EventFleetChanged, Data: entries})
		},
		SelectionChanged: func(selected []string) {
			hub.Broadcast(SSEEvent{Type: EventSelectionChanged, Data: selected})
		},
		ActionStateChanged: func(state actions.State) {
			hub.Broadcast(SSEEvent{Type: EventActionState, Data: state})
		},
		ImagesChanged: func(images []fleet.ImageRecord) {
			hub.Broadcast(SSEEvent{Type: EventImagesChanged, Data: images})
		},
		ActionCompleted: func(action actions.Action, addresses []string, failure error) {
			data := map[string]any{
				"action":    action,
				"addresses": addresses,
			}
			if failure != nil {
				data["failure"] = failure.Error()
			}
			hub.Broadcast(SSEEvent{Type: EventActionCompleted, Data: data})
		},
	})
}
