// Package oplog records every processed client line for operational review.
//
// The log is an append-only side effect keyed by client id and display name.
// Nothing in the protocol ever reads it back; Recent exists for operators and
// tests only.
package oplog

import "time"

// Entry is one logged client line.
type Entry struct {
	ID       int64
	ClientID int64
	Name     string
	Line     string
	At       time.Time
}

// Log is the operational log interface. Implementations include the default
// SQLite store and an in-memory store for tests.
type Log interface {
	Append(clientID int64, name, line string) error
	Recent(limit int) ([]Entry, error)
	Close() error
}
