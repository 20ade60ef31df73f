// Package journal records what the console did: every dispatched batch
// action and every completion or failure, per targeted server, through a
// pluggable storage backend.
package journal

import (
	"time"
)

// Event classifies a journal record
const (
	EventDispatched = "dispatched"
	EventCompleted  = "completed"
	EventFailed     = "failed"
)

// Record represents a single journal line
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Server    string    `json:"server,omitempty"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
}

// Filter defines criteria for selecting records during export
type Filter struct {
	From   *time.Time // nil = no lower bound
	To     *time.Time // nil = no upper bound
	Action string     // empty = all actions
	Server string     // empty = all servers
}

// Stats contains journal statistics
type Stats struct {
	RecordCount  int64     `json:"recordCount"`
	OldestRecord time.Time `json:"oldestRecord,omitempty"`
	NewestRecord time.Time `json:"newestRecord,omitempty"`
	IsRecording  bool      `json:"isRecording"`
}

// Backend defines the interface for journal storage backends.
// This allows different implementations (in-memory, SQLite, ...)
type Backend interface {
	// Open initializes the backend
	Open() error

	// Close closes the backend
	Close() error

	// Save stores a single record
	Save(record Record) error

	// SaveBatch stores multiple records in a single transaction
	SaveBatch(records []Record) error

	// GetHistory retrieves records matching the filter, oldest first
	GetHistory(filter Filter) ([]Record, error)

	// GetStats returns storage statistics
	GetStats() (Stats, error)

	// Cleanup removes oldest records to maintain the maxRecords limit
	Cleanup(maxRecords int64) error

	// Clear removes all records
	Clear() error
}

