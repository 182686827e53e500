// Package history persists an audit trail of phase transitions, launches,
// and terminations in a SQLite database, in WAL mode, the same way the
// daemon's own state store does (spec.md §9 design note — an optional
// diagnostic aid, not part of the coordinator's control flow).
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/google/uuid"
)

// EventKind classifies a recorded event.
type EventKind string

const (
	EventPhaseChanged     EventKind = "phase_changed"
	EventLaunched         EventKind = "launched"
	EventTerminated       EventKind = "terminated"
	EventErrorChanged     EventKind = "error_changed"
	EventLinkDisconnected EventKind = "link_disconnected"
	EventLinkReconnected  EventKind = "link_reconnected"
)

// DB is the coordinator's audit log store.
type DB struct {
	db    *sql.DB
	runID string
}

// Open creates or opens the SQLite database at dir/history.db, tagging
// every event this process records with a fresh run ID so a reader can
// tell restarts apart in the log.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	d := &DB{db: sqlDB, runID: uuid.NewString()}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// RunID identifies this process's lifetime in the log.
func (d *DB) RunID() string { return d.runID }

// Close cleanly shuts down the database.
func (d *DB) Close() error { return d.db.Close() }

// Ping checks database connectivity, used by the environment health check.
func (d *DB) Ping() error { return d.db.Ping() }

func (d *DB) migrate() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		timestamp  INTEGER NOT NULL,
		kind       TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(timestamp)`)
	return err
}

// Record appends one event to the log. Best-effort: callers log a failure
// and continue, since the audit trail must never block the tick loop.
func (d *DB) Record(kind EventKind, detail string) error {
	_, err := d.db.Exec(
		`INSERT INTO events (run_id, timestamp, kind, detail) VALUES (?, ?, ?, ?)`,
		d.runID, time.Now().Unix(), string(kind), detail,
	)
	return err
}

// Event is one row read back from the log.
type Event struct {
	RunID     string
	Timestamp time.Time
	Kind      EventKind
	Detail    string
}

// Recent returns the most recent n events, newest first.
func (d *DB) Recent(n int) ([]Event, error) {
	rows, err := d.db.Query(
		`SELECT run_id, timestamp, kind, detail FROM events ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		var kind string
		if err := rows.Scan(&e.RunID, &ts, &kind, &e.Detail); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Kind = EventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}
