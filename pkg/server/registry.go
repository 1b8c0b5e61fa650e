package server

import (
	"sort"
	"strings"
	"sync"

	"coordchat/pkg/model"
)

// Registry is the shared collection of live sessions keyed by display name,
// plus the coordinator slot and the pending approval queue. Every invariant
// check-and-mutate happens under one mutex; callers never see the raw maps.
//
// Invariant: the coordinator is empty exactly when the registry is empty, and
// otherwise names exactly one live session.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	coordinator string
	pending     []string // requester names awaiting a coordinator decision, oldest first
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Join registers a session under its display name. The uniqueness check and
// the insert are one atomic step, as is the first-join coordinator election.
// It reports whether the session became coordinator and who the coordinator
// is after the join.
func (r *Registry) Join(sess *Session) (becameCoordinator bool, coordinator string, err error) {
	name := sess.Name()
	if err := model.ValidateName(name); err != nil {
		return false, "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.sessions[name]; taken {
		return false, "", model.ErrNameTaken
	}
	r.sessions[name] = sess

	if r.coordinator == "" {
		r.coordinator = name
		return true, name, nil
	}
	return false, r.coordinator, nil
}

// Leave removes a session by name. If the leaver was coordinator, the
// earliest surviving joiner (lowest client id) is elected and returned so
// the caller can announce it; newCoordinator is nil when the
// registry emptied. Pending approval requests from the leaver are dropped.
func (r *Registry) Leave(name string) (wasCoordinator bool, newCoordinator *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[name]; !ok {
		return false, nil
	}
	delete(r.sessions, name)

	for i, p := range r.pending {
		if p == name {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			break
		}
	}

	if r.coordinator != name {
		return false, nil
	}

	r.coordinator = ""
	var next *Session
	for _, s := range r.sessions {
		if next == nil || s.ID() < next.ID() {
			next = s
		}
	}
	if next != nil {
		r.coordinator = next.Name()
	}
	return true, next
}

// Find returns the live session with exactly the given name.
func (r *Registry) Find(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// FindFold returns the live session whose name matches case-insensitively,
// as private-message addressing does.
func (r *Registry) FindFold(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for n, s := range r.sessions {
		if strings.EqualFold(n, name) {
			return s, true
		}
	}
	return nil, false
}

// Snapshot returns a consistent point-in-time view of all live sessions,
// ordered by client id (join order).
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Members returns the identity records of all live sessions in join order.
func (r *Registry) Members() []model.Member {
	sessions := r.Snapshot()
	members := make([]model.Member, len(sessions))
	for i, s := range sessions {
		members[i] = s.Member()
	}
	return members
}

// Roster returns the member listing (join order) and the coordinator name
// as one consistent view. Separate Members and Coordinator calls could
// interleave with a leave and name a coordinator absent from the listing.
func (r *Registry) Roster() ([]model.Member, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]model.Member, 0, len(r.sessions))
	for _, s := range r.sessions {
		members = append(members, s.Member())
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, r.coordinator
}

// Coordinator returns the current coordinator's name, or "" when the
// registry is empty.
func (r *Registry) Coordinator() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coordinator
}

// IsCoordinator reports whether name is the current coordinator.
func (r *Registry) IsCoordinator(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coordinator != "" && r.coordinator == name
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// AddPending queues a member-detail approval request for the named requester.
// It reports false when that requester already has one outstanding.
func (r *Registry) AddPending(requester string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pending {
		if p == requester {
			return false
		}
	}
	r.pending = append(r.pending, requester)
	return true
}

// TakePending resolves one pending request and removes it from the queue.
// With a named requester it takes exactly that entry; with "" it takes the
// oldest. It reports false when no matching request is pending.
func (r *Registry) TakePending(requester string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return "", false
	}
	if requester == "" {
		name := r.pending[0]
		r.pending = r.pending[1:]
		return name, true
	}
	for i, p := range r.pending {
		if p == requester {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return p, true
		}
	}
	return "", false
}

// PendingCount returns the number of outstanding approval requests.
func (r *Registry) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}
