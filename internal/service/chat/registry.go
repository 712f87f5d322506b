package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type entry struct {
	session *Session
	seq     uint64
}

// Registry is the single source of truth for who is connected. It maps
// clientID to the live session and is safe for concurrent join/leave/read;
// no lock is held across broadcast, callers get point-in-time snapshots.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]entry
	nextSeq  uint64
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]entry)}
}

// Join inserts or replaces the entry for the session's clientID. When a new
// connection claims an ID already in use, the previous session is displaced
// and returned so the caller can retire it; otherwise Join returns nil.
func (r *Registry) Join(s *Session) (displaced *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[s.ClientID]; ok {
		displaced = prev.session
	}
	r.nextSeq++
	r.sessions[s.ClientID] = entry{session: s, seq: r.nextSeq}
	return displaced
}

// Leave removes the session's entry. It is a no-op when the clientID is
// absent, and also when the entry belongs to a different session instance:
// a displaced session's cleanup must not evict its replacement. Reports
// whether an entry was removed.
func (r *Registry) Leave(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.sessions[s.ClientID]
	if !ok || cur.session.Instance != s.Instance {
		return false
	}
	delete(r.sessions, s.ClientID)
	return true
}

// Snapshot returns the current sessions in join order. Membership may
// change the instant the lock is released; callers must tolerate sending
// to a session that has since closed.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	entries := lo.Values(r.sessions)
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return lo.Map(entries, func(e entry, _ int) *Session { return e.session })
}

// Roster lists the connected clientIDs in join order.
func (r *Registry) Roster() []string {
	return lo.Map(r.Snapshot(), func(s *Session, _ int) string { return s.ClientID })
}

// Len reports the current number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
