package journal

import (
	"fmt"
	"sync"
	"time"

	"github.com/pv/camfleet-go/internal/logger"
)

// Manager manages journaling through a backend
type Manager struct {
	mu          sync.RWMutex
	enabled     bool
	backend     Backend
	maxRecords  int64
	lastCleanup time.Time
}

// NewManager creates a new journal manager
func NewManager(backend Backend, maxRecords int64) *Manager {
	return &Manager{
		backend:    backend,
		maxRecords: maxRecords,
	}
}

// Start begins journaling
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enabled {
		return nil // Already journaling
	}

	if err := m.backend.Open(); err != nil {
		return fmt.Errorf("open backend: %w", err)
	}

	m.enabled = true
	return nil
}

// Stop stops journaling
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return nil // Already stopped
	}

	m.enabled = false

	if err := m.backend.Close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	return nil
}

// IsRecording returns whether journaling is active
func (m *Manager) IsRecording() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Append records one event per targeted server (if journaling is
// enabled). Append never fails: a journal write problem is logged and
// swallowed so it cannot block a dispatch.
func (m *Manager) Append(action string, servers []string, event, detail string) {
	m.mu.RLock()
	enabled := m.enabled
	m.mu.RUnlock()

	if !enabled {
		return
	}

	now := time.Now().UTC()
	if len(servers) == 0 {
		// Fleet-wide actions (find, refresh) get a single line.
		servers = []string{""}
	}

	records := make([]Record, 0, len(servers))
	for _, server := range servers {
		records = append(records, Record{
			Timestamp: now,
			Action:    action,
			Server:    server,
			Event:     event,
			Detail:    detail,
		})
	}

	if err := m.backend.SaveBatch(records); err != nil {
		logger.Warn("journal append failed", "action", action, "error", err)
		return
	}

	m.maybeCleanup()
}

// maybeCleanup trims the journal to maxRecords at most once a minute
func (m *Manager) maybeCleanup() {
	m.mu.Lock()
	if time.Since(m.lastCleanup) < time.Minute {
		m.mu.Unlock()
		return
	}
	m.lastCleanup = time.Now()
	m.mu.Unlock()

	if err := m.backend.Cleanup(m.maxRecords); err != nil {
		logger.Warn("journal cleanup failed", "error", err)
	}
}

// GetHistory returns records matching the filter
func (m *Manager) GetHistory(filter Filter) ([]Record, error) {
	return m.backend.GetHistory(filter)
}

// GetStats returns backend statistics plus the journaling flag
func (m *Manager) GetStats() (Stats, error) {
	stats, err := m.backend.GetStats()
	if err != nil {
		return Stats{}, err
	}
	stats.IsRecording = m.IsRecording()
	return stats, nil
}

// Clear removes all journal records
func (m *Manager) Clear() error {
	return m.backend.Clear()
}
