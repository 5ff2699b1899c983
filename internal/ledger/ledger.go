// Package ledger is the durable record of delivered articles. It is
// the only authority on whether a link has already been sent: an
// article is delivered at most once across runs because every
// successful notification is recorded here before the run moves on.
package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one delivery entry. Records are append-only; normal
// operation never updates or deletes them.
type Record struct {
	Link   string
	Title  string
	SentAt time.Time
}

// Stats contains aggregate ledger statistics.
type Stats struct {
	Total    int
	LastSent time.Time // zero when the ledger is empty
}

// Ledger wraps the SQLite store behind the dedup contract.
type Ledger struct {
	conn *sql.DB
	path string
}

// Open creates or opens the ledger database at the given path and
// brings its schema up to date. Safe to call every run.
func Open(dbPath string) (*Ledger, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Ledger{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// IsDelivered reports whether a record exists for the link. A storage
// read failure is reported as delivered: missing one notification is
// preferable to sending a duplicate.
func (l *Ledger) IsDelivered(link string) bool {
	var one int
	err := l.conn.QueryRow("SELECT 1 FROM sent_news WHERE link = ?", link).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Printf("Ledger read failed for %s, treating as delivered: %v", link, err)
		return true
	}
	return true
}

// RecordDelivered inserts a delivery record with the current time. If
// a record for the link already exists the insert is a no-op: the
// post-condition (a record exists) already holds. Any other storage
// error is returned for the caller's record policy to handle.
func (l *Ledger) RecordDelivered(link, title string) error {
	_, err := l.conn.Exec(
		"INSERT OR IGNORE INTO sent_news (link, title, sent_at) VALUES (?, ?, ?)",
		link, title, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording delivery: %w", err)
	}
	return nil
}

// Recent returns the most recent delivery records, newest first.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.conn.Query(
		"SELECT link, title, sent_at FROM sent_news ORDER BY sent_at DESC, link DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var sentAt string
		if err := rows.Scan(&r.Link, &r.Title, &sentAt); err != nil {
			return nil, err
		}
		r.SentAt, _ = time.Parse(time.RFC3339, sentAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetStats returns aggregate ledger statistics.
func (l *Ledger) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := l.conn.QueryRow("SELECT COUNT(*) FROM sent_news").Scan(&s.Total); err != nil {
		return nil, err
	}

	var last sql.NullString
	err := l.conn.QueryRow("SELECT MAX(sent_at) FROM sent_news").Scan(&last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		s.LastSent, _ = time.Parse(time.RFC3339, last.String)
	}
	return s, nil
}
