package session

import (
	"sync"

	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/metrics"
)

// Registry maps user names to their current live session.
// The newest connection of a user replaces older ones.
type Registry struct {
	mu     sync.RWMutex
	buffer int
	byUser map[string]*Session
}

// NewRegistry builds an empty registry; buffer sizes each session's outbound queue.
func NewRegistry(buffer int) *Registry {
	return &Registry{buffer: buffer, byUser: make(map[string]*Session)}
}

// Bind opens a session for user and makes it the user's current one.
func (r *Registry) Bind(user string) *Session {
	s := New(user, r.buffer)

	r.mu.Lock()
	prev := r.byUser[user]
	r.byUser[user] = s
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	} else {
		metrics.ActiveSessions.Inc()
	}
	return s
}

// Unbind closes s and removes it if it is still the user's current session.
func (r *Registry) Unbind(s *Session) {
	if s == nil {
		return
	}
	s.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser[s.User] == s {
		delete(r.byUser, s.User)
		metrics.ActiveSessions.Dec()
	}
}

// Lookup implements core.SessionLookup.
func (r *Registry) Lookup(name string) (core.Session, bool) {
	r.mu.RLock()
	s, ok := r.byUser[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s, true
}

// Len returns the number of bound users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
