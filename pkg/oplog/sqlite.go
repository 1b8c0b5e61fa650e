package oplog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// SQLite is the default Log implementation, backed by a modernc.org/sqlite
// database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the operational log database and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("oplog: open db: %w", err)
	}

	ctx := context.Background()

	// WAL keeps appends from blocking behind concurrent reads.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("oplog: set WAL: %w", err)
	}
	// Busy timeout avoids "database is locked" under concurrent sessions.
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("oplog: set busy_timeout: %w", err)
	}

	s := &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("oplog: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS oplog (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id  INTEGER NOT NULL,
		name       TEXT    NOT NULL,
		line       TEXT    NOT NULL,
		created_at TEXT    NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_oplog_client ON oplog(client_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append records one processed line.
func (s *SQLite) Append(clientID int64, name, line string) error {
	_, err := s.db.ExecContext(context.Background(),
		"INSERT INTO oplog (client_id, name, line, created_at) VALUES (?, ?, ?, ?)",
		clientID, name, line, s.now().Format(dbTimeLayout))
	if err != nil {
		return fmt.Errorf("oplog: append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLite) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT id, client_id, name, line, created_at FROM oplog ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("oplog: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Name, &e.Line, &at); err != nil {
			return nil, fmt.Errorf("oplog: scan: %w", err)
		}
		e.At, _ = time.Parse(dbTimeLayout, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("oplog: rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Compile-time check: *SQLite implements Log.
var _ Log = (*SQLite)(nil)
