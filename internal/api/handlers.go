package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/addrspec"
	"github.com/pv/camfleet-go/internal/coordinator"
	"github.com/pv/camfleet-go/internal/fleet"
	"github.com/pv/camfleet-go/internal/journal"
)

type Handlers struct {
	coord   *coordinator.Coordinator
	jrnl    *journal.Manager
	network netip.Prefix
}

func NewHandlers(coord *coordinator.Coordinator, jrnl *journal.Manager, network netip.Prefix) *Handlers {
	return &Handlers{
		coord:   coord,
		jrnl:    jrnl,
		network: network,
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetServers возвращает список флота в текущем порядке
// GET /api/servers
func (h *Handlers) GetServers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"servers": h.coord.Fleet(),
	})
}

// AddServers добавляет серверы по адресной спецификации
// POST /api/servers {"addresses": "192.168.0.1-192.168.0.10", "label": "rig A"}
func (h *Handlers) AddServers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses string `json:"addresses"`
		Label     string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Addresses == "" {
		h.writeError(w, http.StatusBadRequest, "addresses required")
		return
	}

	parsed, err := addrspec.Parse(req.Addresses, h.network)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var added, duplicate []string
	for _, address := range parsed {
		err := h.coord.Add(fleet.ServerEntry{Address: address, Label: req.Label})
		switch {
		case err == nil:
			added = append(added, address)
		case errors.Is(err, fleet.ErrDuplicateIdentifier):
			duplicate = append(duplicate, address)
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	h.writeJSON(w, map[string]interface{}{
		"added":     added,
		"duplicate": duplicate,
	})
}

// RemoveServers удаляет серверы по адресной спецификации
// DELETE /api/servers {"addresses": "192.168.0.1,192.168.0.3"}
func (h *Handlers) RemoveServers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses string `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Addresses == "" {
		h.writeError(w, http.StatusBadRequest, "addresses required")
		return
	}

	parsed, err := addrspec.Parse(req.Addresses, h.network)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.coord.Remove(parsed)
	h.writeJSON(w, map[string]string{"status": "removed"})
}

// GetSelection возвращает выбранные адреса в порядке флота
// GET /api/selection
func (h *Handlers) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"selected": h.coord.Selection(),
	})
}

// SetSelection заменяет выбор целиком
// POST /api/selection {"addresses": ["192.168.0.1"]}
func (h *Handlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses []string `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.coord.Select(req.Addresses)
	h.writeJSON(w, map[string]interface{}{"selected": h.coord.Selection()})
}

// ToggleSelection переключает один адрес
// POST /api/selection/toggle {"address": "192.168.0.1"}
func (h *Handlers) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		h.writeError(w, http.StatusBadRequest, "address required")
		return
	}

	h.coord.Toggle(req.Address)
	h.writeJSON(w, map[string]interface{}{"selected": h.coord.Selection()})
}

// ExtendSelection расширяет выбор от якоря до адреса
// POST /api/selection/extend {"address": "192.168.0.9"}
func (h *Handlers) ExtendSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		h.writeError(w, http.StatusBadRequest, "address required")
		return
	}

	h.coord.ExtendRangeTo(req.Address)
	h.writeJSON(w, map[string]interface{}{"selected": h.coord.Selection()})
}

// Move перемещает выбранный блок
// POST /api/move/{direction}  (top, up, down, bottom)
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	var err error
	switch r.PathValue("direction") {
	case "top":
		err = h.coord.MoveTop()
	case "up":
		err = h.coord.MoveUp()
	case "down":
		err = h.coord.MoveDown()
	case "bottom":
		err = h.coord.MoveBottom()
	default:
		h.writeError(w, http.StatusBadRequest, "direction must be top, up, down or bottom")
		return
	}

	if errors.Is(err, coordinator.ErrActionNotPermitted) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, map[string]interface{}{"servers": h.coord.Fleet()})
}

// GetActions возвращает текущую таблицу доступности действий
// GET /api/actions
func (h *Handlers) GetActions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"actions": h.coord.ActionState(),
	})
}

// InvokeAction вызывает действие по имени
// POST /api/actions/{name}
func (h *Handlers) InvokeAction(w http.ResponseWriter, r *http.Request) {
	name := actions.Action(r.PathValue("name"))
	if !actions.Valid(name) {
		h.writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	if err := h.coord.Invoke(name); err != nil {
		if errors.Is(err, coordinator.ErrActionNotPermitted) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, map[string]string{"status": "dispatched", "action": string(name)})
}

// GetImages возвращает коллекцию снимков
// GET /api/images
func (h *Handlers) GetImages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"images": h.coord.Images(),
	})
}

// GetJournal экспортирует журнал действий
// GET /api/journal?format=csv&action=capture&server=...&from=...&to=...
func (h *Handlers) GetJournal(w http.ResponseWriter, r *http.Request) {
	if h.jrnl == nil {
		h.writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	filter := journal.Filter{
		Action: r.URL.Query().Get("action"),
		Server: r.URL.Query().Get("server"),
	}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &t
		}
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &t
		}
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
		if err := h.jrnl.ToCSV(w, filter); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := h.jrnl.ToJSON(w, filter); err != nil {
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// GetJournalStats возвращает статистику журнала
// GET /api/journal/stats
func (h *Handlers) GetJournalStats(w http.ResponseWriter, r *http.Request) {
	if h.jrnl == nil {
		h.writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	stats, err := h.jrnl.GetStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, stats)
}
