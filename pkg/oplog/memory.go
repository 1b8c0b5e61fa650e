package oplog

import (
	"sync"
	"time"
)

// Memory is an in-memory Log, used when no database path is configured and
// in tests. It mirrors the SQLite store's ordering and id assignment.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  int64
	entries []Entry
}

// NewMemory creates a Memory log using time.Now().UTC().
func NewMemory() *Memory {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a Memory log with a custom clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Memory{now: now, nextID: 1}
}

// Append records one processed line.
func (m *Memory) Append(clientID int64, name, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		ID:       m.nextID,
		ClientID: clientID,
		Name:     name,
		Line:     line,
		At:       m.now(),
	})
	m.nextID++
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *Memory) Recent(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	result := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= len(m.entries)-limit; i-- {
		result = append(result, m.entries[i])
	}
	return result, nil
}

// Close is a no-op for Memory.
func (m *Memory) Close() error {
	return nil
}

// Compile-time check: *Memory implements Log.
var _ Log = (*Memory)(nil)
