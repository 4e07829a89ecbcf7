package preferences

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreNil is returned when a nil store dependency is provided.
var ErrStoreNil = errors.New("preferences store cannot be nil")

// MemoryStore holds preferences in memory. Users without a saved record get
// Default preferences, the same fallback the settings panel applies.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Preferences
}

// NewMemoryStore creates an empty in-memory preferences store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]Preferences)}
}

// Get returns the user's saved preferences, or Default when none exist.
func (s *MemoryStore) Get(ctx context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.users[userID]; ok {
		return p, nil
	}
	return Default(userID), nil
}

// Set saves the user's preferences.
func (s *MemoryStore) Set(ctx context.Context, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[p.UserID] = p
	return nil
}
