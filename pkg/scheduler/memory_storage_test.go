package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/scheduler"
)

func TestMemoryStorageCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := scheduler.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })

	n := newTestNotification()
	require.NoError(t, storage.Create(ctx, n))

	t.Run("duplicate create is rejected", func(t *testing.T) {
		assert.ErrorIs(t, storage.Create(ctx, n), scheduler.ErrNotificationExists)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := storage.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)

		got.Title = "mutated"
		again, err := storage.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "Low balance", again.Title)
	})

	t.Run("update unknown row fails", func(t *testing.T) {
		missing := newTestNotification()
		assert.ErrorIs(t, storage.Update(ctx, missing), scheduler.ErrNotificationNotFound)
	})

	t.Run("nil rows are rejected", func(t *testing.T) {
		assert.ErrorIs(t, storage.Create(ctx, nil), scheduler.ErrNotificationNil)
		assert.ErrorIs(t, storage.Update(ctx, nil), scheduler.ErrNotificationNil)
	})
}

func TestMemoryStorageClaimDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()

	t.Run("claims transition to processing with a lock", func(t *testing.T) {
		t.Parallel()

		storage := scheduler.NewMemoryStorage()
		t.Cleanup(func() { _ = storage.Close() })

		n := newTestNotification()
		n.ScheduledFor = now.Add(-time.Minute)
		require.NoError(t, storage.Create(ctx, n))

		workerID := uuid.New()
		claimed, err := storage.ClaimDue(ctx, workerID, now, 10, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		assert.Equal(t, scheduler.StatusProcessing, claimed[0].Status)
		require.NotNil(t, claimed[0].LockedBy)
		assert.Equal(t, workerID, *claimed[0].LockedBy)
		require.NotNil(t, claimed[0].LockedUntil)

		_, err = storage.ClaimDue(ctx, uuid.New(), now, 10, time.Minute)
		assert.ErrorIs(t, err, scheduler.ErrNothingToClaim, "a claimed row cannot be claimed again")
	})

	t.Run("future rows are not claimable", func(t *testing.T) {
		t.Parallel()

		storage := scheduler.NewMemoryStorage()
		t.Cleanup(func() { _ = storage.Close() })

		n := newTestNotification()
		n.ScheduledFor = now.Add(time.Hour)
		require.NoError(t, storage.Create(ctx, n))

		_, err := storage.ClaimDue(ctx, uuid.New(), now, 10, time.Minute)
		assert.ErrorIs(t, err, scheduler.ErrNothingToClaim)
	})

	t.Run("higher priority claims first", func(t *testing.T) {
		t.Parallel()

		storage := scheduler.NewMemoryStorage()
		t.Cleanup(func() { _ = storage.Close() })

		low := newTestNotification()
		low.Priority = scheduler.PriorityLow
		low.ScheduledFor = now.Add(-time.Hour)
		urgent := newTestNotification()
		urgent.Priority = scheduler.PriorityUrgent
		urgent.ScheduledFor = now.Add(-time.Minute)
		require.NoError(t, storage.Create(ctx, low))
		require.NoError(t, storage.Create(ctx, urgent))

		claimed, err := storage.ClaimDue(ctx, uuid.New(), now, 1, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, urgent.ID, claimed[0].ID)
	})

	t.Run("concurrent workers never claim the same row", func(t *testing.T) {
		t.Parallel()

		storage := scheduler.NewMemoryStorage()
		t.Cleanup(func() { _ = storage.Close() })

		const rows = 20
		for range rows {
			n := newTestNotification()
			n.ScheduledFor = now.Add(-time.Minute)
			require.NoError(t, storage.Create(ctx, n))
		}

		const workers = 8
		var (
			mu      sync.Mutex
			claimed = make(map[uuid.UUID]int)
			wg      sync.WaitGroup
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					batch, err := storage.ClaimDue(ctx, uuid.New(), now, 3, time.Minute)
					if err != nil {
						return
					}
					mu.Lock()
					for _, n := range batch {
						claimed[n.ID]++
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, claimed, rows, "every row is claimed")
		for id, count := range claimed {
			assert.Equal(t, 1, count, "row %s claimed more than once", id)
		}
	})

	t.Run("multiple expired locks are recovered together", func(t *testing.T) {
		t.Parallel()

		storage := scheduler.NewMemoryStorage()
		t.Cleanup(func() { _ = storage.Close() })

		first := newTestNotification()
		first.ScheduledFor = now.Add(-time.Minute)
		second := newTestNotification()
		second.ScheduledFor = now.Add(-time.Minute)
		require.NoError(t, storage.Create(ctx, first))
		require.NoError(t, storage.Create(ctx, second))

		// Claim both with an already-expired lock, as left behind by a
		// worker that died mid-dispatch.
		claimed, err := storage.ClaimDue(ctx, uuid.New(), now, 10, -time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 2)

		// The background expirer must return both rows to scheduled in
		// the same sweep.
		require.Eventually(t, func() bool {
			a, err := storage.Get(ctx, first.ID)
			if err != nil || a.Status != scheduler.StatusScheduled {
				return false
			}
			b, err := storage.Get(ctx, second.ID)
			return err == nil && b.Status == scheduler.StatusScheduled
		}, 5*time.Second, 50*time.Millisecond)

		reclaimed, err := storage.ClaimDue(ctx, uuid.New(), time.Now(), 10, time.Minute)
		require.NoError(t, err)
		assert.Len(t, reclaimed, 2)
	})
}

func TestMemoryStorageReviveRetryable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := scheduler.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })

	now := time.Now()

	eligible := newTestNotification()
	eligible.MarkFailed("transient", now.Add(-2*scheduler.DefaultRetryInterval))
	require.NoError(t, storage.Create(ctx, eligible))

	waiting := newTestNotification()
	waiting.MarkFailed("transient", now)
	require.NoError(t, storage.Create(ctx, waiting))

	exhausted := newTestNotification()
	exhausted.FailPermanently("bad template", now.Add(-time.Hour))
	require.NoError(t, storage.Create(ctx, exhausted))

	revived, err := storage.ReviveRetryable(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, revived)

	got, err := storage.Get(ctx, eligible.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusScheduled, got.Status)
	assert.Nil(t, got.NextRetryAt)

	got, err = storage.Get(ctx, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusFailed, got.Status, "backoff has not elapsed")

	got, err = storage.Get(ctx, exhausted.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusFailed, got.Status, "budget exhausted")

	revived, err = storage.ReviveRetryable(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, revived, "revival is idempotent")
}

func TestMemoryStorageCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := scheduler.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })

	n := newTestNotification()
	require.NoError(t, storage.Create(ctx, n))
	require.NoError(t, storage.Cancel(ctx, n.ID))

	got, err := storage.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusCancelled, got.Status)

	_, err = storage.ClaimDue(ctx, uuid.New(), time.Now().Add(time.Hour), 10, time.Minute)
	assert.ErrorIs(t, err, scheduler.ErrNothingToClaim, "cancelled rows are not claimable")

	assert.ErrorIs(t, storage.Cancel(ctx, uuid.New()), scheduler.ErrNotificationNotFound)
}

func TestMemoryStorageListOverdue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := scheduler.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })

	now := time.Now()

	stuck := newTestNotification()
	stuck.ScheduledFor = now.Add(-scheduler.OverdueThreshold - time.Minute)
	require.NoError(t, storage.Create(ctx, stuck))

	fresh := newTestNotification()
	fresh.ScheduledFor = now.Add(-time.Minute)
	require.NoError(t, storage.Create(ctx, fresh))

	overdue, err := storage.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, stuck.ID, overdue[0].ID)
}
