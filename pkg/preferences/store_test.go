package preferences_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/preferences"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := preferences.NewMemoryStore()

	t.Run("unknown user gets defaults", func(t *testing.T) {
		t.Parallel()

		p, err := store.Get(ctx, "fresh-user")
		require.NoError(t, err)
		assert.Equal(t, "fresh-user", p.UserID)
		assert.True(t, preferences.ChannelEnabled(p, events.ChannelEmail))
	})

	t.Run("saved preferences round trip", func(t *testing.T) {
		t.Parallel()

		p := preferences.Default("user-1")
		p.Channels[events.ChannelSMS] = false
		require.NoError(t, store.Set(ctx, p))

		got, err := store.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, preferences.ChannelEnabled(got, events.ChannelSMS))
		assert.True(t, preferences.ChannelEnabled(got, events.ChannelEmail))
	})
}
