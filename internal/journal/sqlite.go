package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteBackend struct {
	path string
	db   *sql.DB
}

// NewSQLiteBackend returns a backend that stores records in the SQLite
// database at the given path. The database is opened lazily by Open.
func NewSQLiteBackend(path string) Backend {
	return &sqliteBackend{path: path}
}

func (s *sqliteBackend) Open() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			server TEXT NOT NULL,
			event TEXT NOT NULL,
			detail TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_lookup
			ON journal(action, server, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *sqliteBackend) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *sqliteBackend) Save(record Record) error {
	if s.db == nil {
		return fmt.Errorf("backend not open")
	}

	_, err := s.db.Exec(
		`INSERT INTO journal (action, server, event, detail, timestamp) VALUES (?, ?, ?, ?, ?)`,
		record.Action, record.Server, record.Event, record.Detail, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *sqliteBackend) SaveBatch(records []Record) error {
	if s.db == nil {
		return fmt.Errorf("backend not open")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO journal (action, server, event, detail, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Action, r.Server, r.Event, r.Detail, r.Timestamp); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *sqliteBackend) GetHistory(filter Filter) ([]Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("backend not open")
	}

	query := `SELECT action, server, event, detail, timestamp FROM journal WHERE 1=1`
	var args []any

	if filter.From != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *filter.To)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.Server != "" {
		query += ` AND server = ?`
		args = append(args, filter.Server)
	}
	query += ` ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var ts time.Time
		if err := rows.Scan(&r.Action, &r.Server, &r.Event, &r.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Timestamp = ts
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteBackend) GetStats() (Stats, error) {
	if s.db == nil {
		return Stats{}, fmt.Errorf("backend not open")
	}

	var stats Stats
	row := s.db.QueryRow(`SELECT COUNT(*) FROM journal`)
	if err := row.Scan(&stats.RecordCount); err != nil {
		return Stats{}, fmt.Errorf("count: %w", err)
	}

	if stats.RecordCount > 0 {
		// Read the column, not MIN()/MAX(): aggregate expressions lose
		// the DATETIME declared type the driver needs for conversion.
		row = s.db.QueryRow(`SELECT timestamp FROM journal ORDER BY id ASC LIMIT 1`)
		if err := row.Scan(&stats.OldestRecord); err != nil {
			return Stats{}, fmt.Errorf("oldest: %w", err)
		}
		row = s.db.QueryRow(`SELECT timestamp FROM journal ORDER BY id DESC LIMIT 1`)
		if err := row.Scan(&stats.NewestRecord); err != nil {
			return Stats{}, fmt.Errorf("newest: %w", err)
		}
	}
	return stats, nil
}

func (s *sqliteBackend) Cleanup(maxRecords int64) error {
	if s.db == nil {
		return fmt.Errorf("backend not open")
	}

	_, err := s.db.Exec(`
		DELETE FROM journal WHERE id NOT IN (
			SELECT id FROM journal ORDER BY id DESC LIMIT ?
		)`, maxRecords)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *sqliteBackend) Clear() error {
	if s.db == nil {
		return fmt.Errorf("backend not open")
	}

	if _, err := s.db.Exec(`DELETE FROM journal`); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
