package webhooks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// Registry stores webhook subscriptions and their health counters.
type Registry interface {
	Create(ctx context.Context, cfg *Config) error
	Get(ctx context.Context, id uuid.UUID) (*Config, error)
	Update(ctx context.Context, cfg *Config) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Config, error)

	// Matching returns the active subscriptions that receive the given
	// event.
	Matching(ctx context.Context, event events.LifecycleEvent) ([]Config, error)

	// RecordResult advances the subscription's health counters after a
	// delivery. A nil deliveryErr counts as success.
	RecordResult(ctx context.Context, id uuid.UUID, deliveryErr error, now time.Time) error
}

// MemoryRegistry is an in-memory Registry for testing and local
// development.
type MemoryRegistry struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*Config
}

// NewMemoryRegistry creates an empty in-memory subscription registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rows: make(map[uuid.UUID]*Config)}
}

// Create implements Registry. The subscription is validated and assigned an
// ID when it has none.
func (r *MemoryRegistry) Create(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	} else if _, exists := r.rows[cfg.ID]; exists {
		return ErrConfigExists
	}

	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	clone := *cfg
	r.rows[cfg.ID] = &clone
	return nil
}

// Get implements Registry.
func (r *MemoryRegistry) Get(ctx context.Context, id uuid.UUID) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, exists := r.rows[id]
	if !exists {
		return nil, ErrConfigNotFound
	}
	clone := *row
	return &clone, nil
}

// Update implements Registry.
func (r *MemoryRegistry) Update(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[cfg.ID]; !exists {
		return ErrConfigNotFound
	}
	cfg.UpdatedAt = time.Now()
	clone := *cfg
	r.rows[cfg.ID] = &clone
	return nil
}

// Delete implements Registry.
func (r *MemoryRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[id]; !exists {
		return ErrConfigNotFound
	}
	delete(r.rows, id)
	return nil
}

// List implements Registry.
func (r *MemoryRegistry) List(ctx context.Context) ([]Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Config, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, nil
}

// Matching implements Registry.
func (r *MemoryRegistry) Matching(ctx context.Context, event events.LifecycleEvent) ([]Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Config
	for _, row := range r.rows {
		if row.Active && row.Subscribed(event) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// RecordResult implements Registry.
func (r *MemoryRegistry) RecordResult(ctx context.Context, id uuid.UUID, deliveryErr error, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, exists := r.rows[id]
	if !exists {
		return ErrConfigNotFound
	}
	if deliveryErr == nil {
		row.RecordSuccess(now)
	} else {
		row.RecordFailure(deliveryErr.Error(), now)
	}
	return nil
}
