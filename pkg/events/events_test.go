package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/events"
)

func TestChannelValid(t *testing.T) {
	t.Parallel()

	for _, ch := range events.Channels() {
		assert.True(t, ch.Valid(), string(ch))
	}
	assert.False(t, events.Channel("carrier_pigeon").Valid())
	assert.False(t, events.Channel("").Valid())
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ      events.Type
		category events.Category
	}{
		{events.TypeDepositReceived, events.CategoryTransaction},
		{events.TypeLowBalance, events.CategoryTransaction},
		{events.TypeSuspiciousActivity, events.CategorySecurity},
		{events.TypeProductOffer, events.CategoryMarketing},
		{events.TypeTicketResolved, events.CategorySupport},
		{events.TypeSavingsGoalReached, events.CategorySavings},
	}
	for _, tc := range cases {
		cat, ok := events.CategoryOf(tc.typ)
		require.True(t, ok, string(tc.typ))
		assert.Equal(t, tc.category, cat)
	}

	// General types carry no category and bypass category filtering.
	for _, typ := range []events.Type{
		events.TypeSystemAnnouncement,
		events.TypeBirthdayGreeting,
		events.TypeAccountStatementReady,
	} {
		_, ok := events.CategoryOf(typ)
		assert.False(t, ok, string(typ))
	}
}

func TestTypeLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Savings Deposit", events.TypeSavingsDeposit.Label())
	assert.Equal(t, "Auto-Save Executed", events.TypeAutoSaveExecuted.Label())

	// Unknown types get a label derived from the identifier.
	assert.Equal(t, "Custom Campaign Event", events.Type("custom_campaign_event").Label())
}

func TestLifecycleEvents(t *testing.T) {
	t.Parallel()

	all := events.LifecycleEvents()
	assert.Len(t, all, 8)
	assert.Contains(t, all, events.NotificationScheduled)
	assert.Contains(t, all, events.NotificationCancelled)
}
