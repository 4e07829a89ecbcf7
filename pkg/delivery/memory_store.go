package delivery

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for testing and local development.
type MemoryStore struct {
	mu             sync.RWMutex
	rows           map[uuid.UUID]*Analytics
	byNotification map[uuid.UUID][]uuid.UUID
}

// NewMemoryStore creates an empty in-memory analytics store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:           make(map[uuid.UUID]*Analytics),
		byNotification: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, row *Analytics) error {
	if row == nil {
		return ErrStoreNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[row.ID]; exists {
		return ErrAnalyticsExists
	}

	// Clone to prevent external mutation of stored state.
	clone := *row
	s.rows[row.ID] = &clone
	s.byNotification[row.NotificationID] = append(s.byNotification[row.NotificationID], row.ID)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, row *Analytics) error {
	if row == nil {
		return ErrStoreNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[row.ID]; !exists {
		return ErrAnalyticsNotFound
	}

	clone := *row
	s.rows[row.ID] = &clone
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, exists := s.rows[id]
	if !exists {
		return nil, ErrAnalyticsNotFound
	}

	clone := *row
	return &clone, nil
}

// ListByNotification implements Store. Rows are returned in creation order.
func (s *MemoryStore) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byNotification[notificationID]
	out := make([]Analytics, 0, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
