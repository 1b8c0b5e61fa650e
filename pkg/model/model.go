// Package model defines the core domain types for coordchat.
package model

import (
	"errors"
	"time"
)

var ErrNameEmpty = errors.New("display name must not be empty")
var ErrNameTaken = errors.New("display name is already in use")

// Member identifies one registered client as seen by the server.
// Addr and Port describe the remote transport endpoint and are read-only
// after creation.
type Member struct {
	ID       int64  // positive, monotonically assigned, never reused
	Name     string // unique among live members
	Addr     string
	Port     int
	JoinedAt time.Time
}

// ValidateName checks that a display name is acceptable for registration.
// Only emptiness is rejected here; uniqueness is the registry's job.
func ValidateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	return nil
}
