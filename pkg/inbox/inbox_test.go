package inbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/inbox"
	"github.com/finbase/notifier/pkg/templates"
)

func newTestMessage(userID string, createdAt time.Time) inbox.Message {
	return inbox.Message{
		ID:             uuid.New(),
		UserID:         userID,
		NotificationID: uuid.New(),
		Type:           events.TypeLowBalance,
		Title:          "Low balance",
		Body:           "Your checking account dropped below the threshold",
		CreatedAt:      createdAt,
	}
}

func TestMessageLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("mark read is idempotent", func(t *testing.T) {
		t.Parallel()

		msg := newTestMessage("user-1", time.Now())
		first := time.Now()
		msg.MarkRead(first)
		require.True(t, msg.Read)
		require.NotNil(t, msg.ReadAt)
		assert.Equal(t, first, *msg.ReadAt)

		msg.MarkRead(first.Add(time.Hour))
		assert.Equal(t, first, *msg.ReadAt)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		msg := newTestMessage("user-1", now)
		assert.False(t, msg.Expired(now))

		expiresAt := now.Add(time.Minute)
		msg.ExpiresAt = &expiresAt
		assert.False(t, msg.Expired(now))
		assert.True(t, msg.Expired(now.Add(2*time.Minute)))
	})
}

func TestMemoryStorageCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := inbox.NewMemoryStorage()
	msg := newTestMessage("user-1", time.Now())

	require.NoError(t, store.Create(ctx, msg))
	assert.ErrorIs(t, store.Create(ctx, msg), inbox.ErrMessageExists)

	got, err := store.Get(ctx, "user-1", msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Title, got.Title)

	_, err = store.Get(ctx, "user-2", msg.ID)
	assert.ErrorIs(t, err, inbox.ErrMessageNotFound)

	require.NoError(t, store.Delete(ctx, "user-1", msg.ID))
	_, err = store.Get(ctx, "user-1", msg.ID)
	assert.ErrorIs(t, err, inbox.ErrMessageNotFound)
}

func TestMemoryStorageList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := inbox.NewMemoryStorage()
	base := time.Now().Add(-time.Hour)

	var msgs []inbox.Message
	for i := range 5 {
		msg := newTestMessage("user-1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Create(ctx, msg))
		msgs = append(msgs, msg)
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		out, err := store.List(ctx, "user-1", inbox.ListOptions{})
		require.NoError(t, err)
		require.Len(t, out, 5)
		assert.Equal(t, msgs[4].ID, out[0].ID)
		assert.Equal(t, msgs[0].ID, out[4].ID)
	})

	t.Run("paging", func(t *testing.T) {
		t.Parallel()

		out, err := store.List(ctx, "user-1", inbox.ListOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, msgs[3].ID, out[0].ID)

		out, err = store.List(ctx, "user-1", inbox.ListOptions{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("since filter", func(t *testing.T) {
		t.Parallel()

		since := msgs[2].CreatedAt
		out, err := store.List(ctx, "user-1", inbox.ListOptions{Since: &since})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("expired messages disappear", func(t *testing.T) {
		t.Parallel()

		expStore := inbox.NewMemoryStorage()
		expired := newTestMessage("user-1", time.Now().Add(-time.Hour))
		past := time.Now().Add(-time.Minute)
		expired.ExpiresAt = &past
		require.NoError(t, expStore.Create(ctx, expired))
		require.NoError(t, expStore.Create(ctx, newTestMessage("user-1", time.Now())))

		out, err := expStore.List(ctx, "user-1", inbox.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, out, 1)

		count, err := expStore.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestMemoryStorageMarkRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := inbox.NewMemoryStorage()
	first := newTestMessage("user-1", time.Now())
	second := newTestMessage("user-1", time.Now())
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	transitioned, err := store.MarkRead(ctx, "user-1", first.ID, uuid.New())
	require.NoError(t, err)
	require.Len(t, transitioned, 1)
	assert.Equal(t, first.ID, transitioned[0].ID)
	assert.True(t, transitioned[0].Read)

	// Already-read messages do not transition again.
	transitioned, err = store.MarkRead(ctx, "user-1", first.ID)
	require.NoError(t, err)
	assert.Empty(t, transitioned)

	count, err := store.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := store.List(ctx, "user-1", inbox.ListOptions{OnlyUnread: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)
}

func TestSender(t *testing.T) {
	t.Parallel()

	t.Run("requires storage", func(t *testing.T) {
		t.Parallel()

		_, err := inbox.NewSender(nil)
		assert.ErrorIs(t, err, inbox.ErrStorageNil)
	})

	t.Run("stores the rendered message", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := inbox.NewMemoryStorage()
		sender, err := inbox.NewSender(store)
		require.NoError(t, err)
		assert.Equal(t, events.ChannelInApp, sender.Channel())

		notificationID := uuid.New()
		resp, err := sender.Send(ctx, delivery.Message{
			NotificationID: notificationID,
			UserID:         "user-1",
			Type:           events.TypeDepositReceived,
			Channel:        events.ChannelInApp,
			Content: templates.Rendered{
				Subject: "Deposit received",
				Body:    "Funds are available",
			},
		})
		require.NoError(t, err)

		id, err := uuid.Parse(resp)
		require.NoError(t, err)

		got, err := store.Get(ctx, "user-1", id)
		require.NoError(t, err)
		assert.Equal(t, notificationID, got.NotificationID)
		assert.Equal(t, "Deposit received", got.Title)
		assert.Equal(t, "Funds are available", got.Body)
		assert.False(t, got.Read)
		assert.Nil(t, got.ExpiresAt)
	})

	t.Run("retention sets expiry", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := inbox.NewMemoryStorage()
		sender, err := inbox.NewSender(store, inbox.WithRetention(30*24*time.Hour))
		require.NoError(t, err)

		resp, err := sender.Send(ctx, delivery.Message{
			UserID:  "user-1",
			Type:    events.TypeLowBalance,
			Content: templates.Rendered{Subject: "s", Body: "b"},
		})
		require.NoError(t, err)

		id, err := uuid.Parse(resp)
		require.NoError(t, err)
		got, err := store.Get(ctx, "user-1", id)
		require.NoError(t, err)
		require.NotNil(t, got.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *got.ExpiresAt, time.Minute)
	})
}
