package session

import "sync"

// MemoryStore keeps the session in process memory. It does not survive a
// restart and is meant for tests and throwaway runs.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Set replaces the session.
func (s *MemoryStore) Set(token, displayName string) error {
	if token == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	s.current = &Session{Token: token, DisplayName: displayName}
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token when a session exists.
func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Token, true
}

// Current returns a copy of the active session.
func (s *MemoryStore) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Clear drops the session.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}
