package session

import (
	"context"
	"sync"
)

// Repository loads and stores session state.
type Repository interface {
	// Load retrieves the session state, returning a fresh empty state
	// when the session is unknown. The returned state is private to the
	// caller; mutations are not visible until Save.
	Load(ctx context.Context, sessionID string) (*State, error)

	// Save persists the full session state.
	Save(ctx context.Context, state *State) error

	// Clear removes all stored state for the session.
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryRepository keeps sessions in process memory. Used for tests and
// local runs without Redis.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sessions: map[string]*State{}}
}

func (r *InMemoryRepository) Load(_ context.Context, sessionID string) (*State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s.Clone(), nil
	}
	return New(sessionID), nil
}

func (r *InMemoryRepository) Save(_ context.Context, state *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[state.ID] = state.Clone()
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
