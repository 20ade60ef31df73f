package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportCSV writes records to CSV format
func ExportCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"timestamp", "action", "server", "event", "detail"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Write records
	for _, record := range records {
		row := []string{
			record.Timestamp.Format(time.RFC3339Nano),
			record.Action,
			record.Server,
			record.Event,
			record.Detail,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return nil
}

// ExportJSON writes records to JSON format
func ExportJSON(w io.Writer, records []Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	export := struct {
		ExportedAt time.Time `json:"exportedAt"`
		Count      int       `json:"count"`
		Records    []Record  `json:"records"`
	}{
		ExportedAt: time.Now().UTC(),
		Count:      len(records),
		Records:    records,
	}

	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// ToCSV exports filtered records from the manager to CSV
func (m *Manager) ToCSV(w io.Writer, filter Filter) error {
	records, err := m.GetHistory(filter)
	if err != nil {
		return fmt.Errorf("get history: %w", err)
	}
	return ExportCSV(w, records)
}

// ToJSON exports filtered records from the manager to JSON
func (m *Manager) ToJSON(w io.Writer, filter Filter) error {
	records, err := m.GetHistory(filter)
	if err != nil {
		return fmt.Errorf("get history: %w", err)
	}
	return ExportJSON(w, records)
}
