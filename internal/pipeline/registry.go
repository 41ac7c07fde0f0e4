package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Registry is a thread-safe set of live sessions with idle-TTL eviction.
// Evicted or removed sessions are disposed.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int
}

func NewRegistry(ttl time.Duration, maxSessions int) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
	}
}

// Add registers s under id.
func (r *Registry) Add(id string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return fmt.Errorf("%w (%d)", ErrTooManySessions, r.maxSessions)
	}
	r.sessions[id] = s
	return nil
}

// Get returns the session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Remove disposes and forgets the session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Dispose()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup disposes sessions idle for longer than the TTL and returns how many
// were evicted.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	now := time.Now()
	var expired []*Session
	for id, s := range r.sessions {
		if now.Sub(s.LastUsed()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Dispose()
	}
	return len(expired)
}

// Close disposes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Dispose()
	}
}
