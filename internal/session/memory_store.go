package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and tests. Production should use PostgresStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*WizardState
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*WizardState),
	}
}

// Get retrieves the state for a session.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*WizardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Return a copy so callers never mutate shared state.
	return state.Clone(), nil
}

// Put stores the state for a session.
func (s *MemoryStore) Put(_ context.Context, sessionID string, state *WizardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := state.Clone()
	cpy.UpdatedAt = time.Now()
	s.sessions[sessionID] = cpy
	return nil
}

// Delete removes the state for a session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
