package editor

import (
	"context"
	"sync"
	"time"
)

// Manager keeps sessions by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []Option
}

// NewManager creates a manager. opts apply to every session it creates.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create starts a new session. Extra options follow the manager's.
func (m *Manager) Create(ctx context.Context, opts ...Option) *Session {
	all := append(append([]Option(nil), m.opts...), opts...)
	s := New(ctx, all...)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Remove closes and forgets the session with id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire closes sessions unused for longer than ttl and returns how many it closed.
func (m *Manager) Expire(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
