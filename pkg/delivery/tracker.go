package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/logger"
)

// Store persists analytics rows.
type Store interface {
	Create(ctx context.Context, row *Analytics) error
	Update(ctx context.Context, row *Analytics) error
	Get(ctx context.Context, id uuid.UUID) (*Analytics, error)
	ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]Analytics, error)
}

// EventSink receives lifecycle events as analytics rows transition.
// Implementations must not block the delivery path; the webhook dispatcher
// satisfies this by fanning out asynchronously.
type EventSink interface {
	Publish(ctx context.Context, event events.Event)
}

// Tracker owns the per-channel delivery lifecycle.
type Tracker struct {
	store  Store
	sink   EventSink
	logger *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithEventSink wires a lifecycle event sink.
func WithEventSink(sink EventSink) TrackerOption {
	return func(t *Tracker) {
		t.sink = sink
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a delivery tracker backed by the given store.
func NewTracker(store Store, opts ...TrackerOption) (*Tracker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	t := &Tracker{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Open creates the pending analytics row for one channel attempt. Called at
// claim time, before the sender is invoked.
func (t *Tracker) Open(ctx context.Context, notificationID uuid.UUID, userID string, ch events.Channel) (*Analytics, error) {
	row := &Analytics{
		ID:             uuid.New(),
		NotificationID: notificationID,
		UserID:         userID,
		Channel:        ch,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := t.store.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create analytics row: %w", err)
	}
	return row, nil
}

// RecordOutcome routes a sender result into the row's lifecycle. A nil
// sendErr marks the row sent; bounce and unsubscribe errors are terminal;
// anything else is a transient failure eligible for the scheduler's retry
// cycle. The returned row reflects the recorded state.
func (t *Tracker) RecordOutcome(ctx context.Context, id uuid.UUID, providerResponse string, sendErr error) (*Analytics, error) {
	row, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	row.ProviderResponse = providerResponse

	switch {
	case sendErr == nil:
		row.MarkSent(now)
	case Permanent(sendErr):
		if errors.Is(sendErr, ErrUnsubscribed) {
			row.MarkUnsubscribed(now)
		} else {
			row.MarkBounced(now)
		}
	default:
		row.MarkFailed(sendErr.Error(), now)
	}

	if err := t.store.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to update analytics row: %w", err)
	}

	t.publish(ctx, row)
	return row, nil
}

// RecordDelivered records provider delivery confirmation.
func (t *Tracker) RecordDelivered(ctx context.Context, id uuid.UUID) (*Analytics, error) {
	return t.transition(ctx, id, func(row *Analytics, now time.Time) {
		row.MarkDelivered(now)
	})
}

// RecordRead records a read receipt.
func (t *Tracker) RecordRead(ctx context.Context, id uuid.UUID) (*Analytics, error) {
	return t.transition(ctx, id, func(row *Analytics, now time.Time) {
		row.MarkRead(now)
	})
}

// ListByNotification returns all channel attempts for a notification.
func (t *Tracker) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]Analytics, error) {
	return t.store.ListByNotification(ctx, notificationID)
}

func (t *Tracker) transition(ctx context.Context, id uuid.UUID, apply func(*Analytics, time.Time)) (*Analytics, error) {
	row, err := t.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(row, time.Now())
	if err := t.store.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to update analytics row: %w", err)
	}
	t.publish(ctx, row)
	return row, nil
}

// publish forwards the row's current state to the event sink. Sink failures
// never affect the analytics row; the sink owns its own error handling.
func (t *Tracker) publish(ctx context.Context, row *Analytics) {
	if t.sink == nil {
		return
	}
	event, ok := lifecycleFor(row.Status)
	if !ok {
		return
	}
	t.sink.Publish(ctx, events.Event{
		Type:           event,
		NotificationID: row.NotificationID.String(),
		Status:         string(row.Status),
		Timestamp:      time.Now(),
	})
	t.logger.LogAttrs(ctx, slog.LevelDebug, "published lifecycle event",
		logger.NotificationID(row.NotificationID),
		logger.EventType(string(event)),
		logger.Channel(string(row.Channel)),
	)
}

func lifecycleFor(s Status) (events.LifecycleEvent, bool) {
	switch s {
	case StatusSent:
		return events.NotificationSent, true
	case StatusDelivered:
		return events.NotificationDelivered, true
	case StatusRead:
		return events.NotificationRead, true
	case StatusFailed:
		return events.NotificationFailed, true
	case StatusBounced:
		return events.NotificationBounced, true
	case StatusUnsubscribed:
		return events.NotificationUnsubscribed, true
	}
	return "", false
}
