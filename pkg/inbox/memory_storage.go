package inbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in memory for testing and local
// development.
type MemoryStorage struct {
	mu     sync.RWMutex
	byUser map[string][]*Message
}

// NewMemoryStorage creates an empty in-memory inbox store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{byUser: make(map[string][]*Message)}
}

// Create implements Storage.
func (s *MemoryStorage) Create(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.byUser[msg.UserID] {
		if m.ID == msg.ID {
			return ErrMessageExists
		}
	}
	clone := msg
	s.byUser[msg.UserID] = append(s.byUser[msg.UserID], &clone)
	return nil
}

// Get implements Storage.
func (s *MemoryStorage) Get(ctx context.Context, userID string, id uuid.UUID) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.byUser[userID] {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, ErrMessageNotFound
}

// List implements Storage. Expired messages are filtered out.
func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []Message
	for _, m := range s.byUser[userID] {
		if m.Expired(now) {
			continue
		}
		if opts.OnlyUnread && m.Read {
			continue
		}
		if opts.Since != nil && !m.CreatedAt.After(*opts.Since) {
			continue
		}
		out = append(out, *m)
	}

	slices.SortFunc(out, func(a, b Message) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// MarkRead implements Storage.
func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, ids ...uuid.UUID) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var transitioned []Message
	for _, m := range s.byUser[userID] {
		if !slices.Contains(ids, m.ID) || m.Read {
			continue
		}
		m.MarkRead(now)
		transitioned = append(transitioned, *m)
	}
	return transitioned, nil
}

// Delete implements Storage.
func (s *MemoryStorage) Delete(ctx context.Context, userID string, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[userID] = slices.DeleteFunc(s.byUser[userID], func(m *Message) bool {
		return slices.Contains(ids, m.ID)
	})
	return nil
}

// CountUnread implements Storage.
func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	count := 0
	for _, m := range s.byUser[userID] {
		if !m.Read && !m.Expired(now) {
			count++
		}
	}
	return count, nil
}
