package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Repository in memory for testing and local
// development. Claim semantics match the durable implementations: a claim
// is a single conditional state transition under the storage mutex, and
// locks left behind by dead workers expire in the background.
type MemoryStorage struct {
	mu       sync.RWMutex
	rows     map[uuid.UUID]*Notification
	byStatus map[Status][]uuid.UUID

	lockTicker *time.Ticker
	done       chan struct{}
}

// NewMemoryStorage creates an in-memory scheduled-notification store.
func NewMemoryStorage() *MemoryStorage {
	ms := &MemoryStorage{
		rows:     make(map[uuid.UUID]*Notification),
		byStatus: make(map[Status][]uuid.UUID),
		done:     make(chan struct{}),
	}

	ms.lockTicker = time.NewTicker(time.Second)
	go ms.lockExpirationLoop()

	return ms
}

// Close stops the background lock expiration goroutine.
func (ms *MemoryStorage) Close() error {
	close(ms.done)
	ms.lockTicker.Stop()
	return nil
}

// Create implements Repository.
func (ms *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if n == nil {
		return ErrNotificationNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.rows[n.ID]; exists {
		return ErrNotificationExists
	}

	clone := cloneNotification(n)
	ms.rows[n.ID] = clone
	ms.byStatus[n.Status] = append(ms.byStatus[n.Status], n.ID)
	return nil
}

// Get implements Repository.
func (ms *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	row, exists := ms.rows[id]
	if !exists {
		return nil, ErrNotificationNotFound
	}
	return cloneNotification(row), nil
}

// Update implements Repository.
func (ms *MemoryStorage) Update(ctx context.Context, n *Notification) error {
	if n == nil {
		return ErrNotificationNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	existing, exists := ms.rows[n.ID]
	if !exists {
		return ErrNotificationNotFound
	}

	if existing.Status != n.Status {
		ms.removeFromStatusIndex(n.ID, existing.Status)
		ms.byStatus[n.Status] = append(ms.byStatus[n.Status], n.ID)
	}
	clone := cloneNotification(n)
	clone.UpdatedAt = time.Now()
	ms.rows[n.ID] = clone
	return nil
}

// ClaimDue implements Repository. Selection is priority-first with earlier
// due times breaking ties, matching the durable storage ordering.
func (ms *MemoryStorage) ClaimDue(ctx context.Context, workerID uuid.UUID, now time.Time, limit int, lockDuration time.Duration) ([]Notification, error) {
	if limit <= 0 {
		limit = 1
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	due := make([]*Notification, 0, limit)
	for _, id := range ms.byStatus[StatusScheduled] {
		row := ms.rows[id]
		if !row.ReadyToSend(now) {
			continue
		}
		due = append(due, row)
	}

	slices.SortFunc(due, func(a, b *Notification) int {
		if a.Priority != b.Priority {
			return int(b.Priority) - int(a.Priority)
		}
		return a.ScheduledFor.Compare(b.ScheduledFor)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	if len(due) == 0 {
		return nil, ErrNothingToClaim
	}

	lockUntil := now.Add(lockDuration)
	claimed := make([]Notification, 0, len(due))
	for _, row := range due {
		row.Status = StatusProcessing
		row.LockedBy = &workerID
		row.LockedUntil = &lockUntil

		ms.removeFromStatusIndex(row.ID, StatusScheduled)
		ms.byStatus[StatusProcessing] = append(ms.byStatus[StatusProcessing], row.ID)

		claimed = append(claimed, *cloneNotification(row))
	}
	return claimed, nil
}

// ReviveRetryable implements Repository. The scan and the per-row
// transition happen under one lock, so concurrent scheduler instances
// cannot revive the same row twice.
func (ms *MemoryStorage) ReviveRetryable(ctx context.Context, now time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	revived := 0
	for _, id := range slices.Clone(ms.byStatus[StatusFailed]) {
		row := ms.rows[id]
		if !row.CanRetry(now) {
			continue
		}
		row.ScheduleRetry(now)
		row.UpdatedAt = now

		ms.removeFromStatusIndex(id, StatusFailed)
		ms.byStatus[StatusScheduled] = append(ms.byStatus[StatusScheduled], id)
		revived++
	}
	return revived, nil
}

// Cancel implements Repository.
func (ms *MemoryStorage) Cancel(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	row, exists := ms.rows[id]
	if !exists {
		return ErrNotificationNotFound
	}

	ms.removeFromStatusIndex(id, row.Status)
	row.Cancel()
	row.UpdatedAt = time.Now()
	ms.byStatus[StatusCancelled] = append(ms.byStatus[StatusCancelled], id)
	return nil
}

// ListOverdue implements Repository.
func (ms *MemoryStorage) ListOverdue(ctx context.Context, now time.Time) ([]Notification, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var overdue []Notification
	for _, id := range ms.byStatus[StatusScheduled] {
		row := ms.rows[id]
		if row.Overdue(now) {
			overdue = append(overdue, *cloneNotification(row))
		}
	}
	return overdue, nil
}

func (ms *MemoryStorage) removeFromStatusIndex(id uuid.UUID, status Status) {
	ms.byStatus[status] = slices.DeleteFunc(ms.byStatus[status], func(v uuid.UUID) bool {
		return v == id
	})
}

// lockExpirationLoop recovers rows claimed by dead workers: processing rows
// whose lock expired return to scheduled so another worker can claim them.
func (ms *MemoryStorage) lockExpirationLoop() {
	for {
		select {
		case <-ms.lockTicker.C:
			ms.expireLocks()
		case <-ms.done:
			return
		}
	}
}

func (ms *MemoryStorage) expireLocks() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	// removeFromStatusIndex shrinks the index in place, so iterate a copy.
	for _, id := range slices.Clone(ms.byStatus[StatusProcessing]) {
		row := ms.rows[id]
		if row.LockedUntil != nil && row.LockedUntil.Before(now) {
			row.Status = StatusScheduled
			row.LockedBy = nil
			row.LockedUntil = nil

			ms.removeFromStatusIndex(id, StatusProcessing)
			ms.byStatus[StatusScheduled] = append(ms.byStatus[StatusScheduled], id)
		}
	}
}

// cloneNotification deep-copies the mutable reference fields so stored rows
// never alias caller state.
func cloneNotification(n *Notification) *Notification {
	clone := *n
	if n.TemplateVars != nil {
		clone.TemplateVars = make(map[string]any, len(n.TemplateVars))
		for k, v := range n.TemplateVars {
			clone.TemplateVars[k] = v
		}
	}
	if n.Channels != nil {
		clone.Channels = slices.Clone(n.Channels)
	}
	if n.NextRetryAt != nil {
		t := *n.NextRetryAt
		clone.NextRetryAt = &t
	}
	if n.LockedUntil != nil {
		t := *n.LockedUntil
		clone.LockedUntil = &t
	}
	if n.LockedBy != nil {
		id := *n.LockedBy
		clone.LockedBy = &id
	}
	if n.SentAt != nil {
		t := *n.SentAt
		clone.SentAt = &t
	}
	return &clone
}
