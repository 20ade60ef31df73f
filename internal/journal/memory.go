package journal

import (
	"slices"
	"sync"
)

type memoryBackend struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryBackend returns a backend that keeps records in memory
func NewMemoryBackend() Backend {
	return &memoryBackend{}
}

func (m *memoryBackend) Open() error  { return nil }
func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) Save(record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryBackend) SaveBatch(records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryBackend) GetHistory(filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Record
	for _, r := range m.records {
		if filter.From != nil && r.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.Timestamp.After(*filter.To) {
			continue
		}
		if filter.Action != "" && r.Action != filter.Action {
			continue
		}
		if filter.Server != "" && r.Server != filter.Server {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (m *memoryBackend) GetStats() (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{RecordCount: int64(len(m.records))}
	if len(m.records) > 0 {
		stats.OldestRecord = m.records[0].Timestamp
		stats.NewestRecord = m.records[len(m.records)-1].Timestamp
	}
	return stats, nil
}

func (m *memoryBackend) Cleanup(maxRecords int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if excess := int64(len(m.records)) - maxRecords; excess > 0 {
		m.records = slices.Clone(m.records[excess:])
	}
	return nil
}

func (m *memoryBackend) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}
