package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// Status is the delivery state of one channel attempt.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSent         Status = "sent"
	StatusDelivered    Status = "delivered"
	StatusRead         Status = "read"
	StatusFailed       Status = "failed"
	StatusBounced      Status = "bounced"
	StatusUnsubscribed Status = "unsubscribed"
)

// Fixed failure reasons recorded for provider-signalled permanent failures.
const (
	ReasonBounced      = "message bounced"
	ReasonUnsubscribed = "user unsubscribed"
)

// Analytics records the delivery lifecycle of one notification on one
// channel. A row is created in pending state when the notification is
// claimed for dispatch and mutated as the provider reports progress.
type Analytics struct {
	ID             uuid.UUID      `json:"id"`
	NotificationID uuid.UUID      `json:"notification_id"`
	UserID         string         `json:"user_id"`
	Channel        events.Channel `json:"channel"`
	Status         Status         `json:"status"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	Attempts         int    `json:"attempts"`
	FailureReason    string `json:"failure_reason,omitempty"`
	ProviderResponse string `json:"provider_response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MarkSent records a successful handoff to the channel provider.
func (a *Analytics) MarkSent(now time.Time) {
	a.Status = StatusSent
	a.SentAt = &now
	a.Attempts++
}

// MarkDelivered records provider confirmation that the message arrived.
func (a *Analytics) MarkDelivered(now time.Time) {
	a.Status = StatusDelivered
	a.DeliveredAt = &now
}

// MarkRead records that the recipient opened the message.
func (a *Analytics) MarkRead(now time.Time) {
	a.Status = StatusRead
	a.ReadAt = &now
}

// MarkFailed records a failed attempt with the given reason.
func (a *Analytics) MarkFailed(reason string, now time.Time) {
	a.Status = StatusFailed
	a.FailedAt = &now
	a.FailureReason = reason
	a.Attempts++
}

// MarkBounced records a permanent provider bounce.
func (a *Analytics) MarkBounced(now time.Time) {
	a.Status = StatusBounced
	a.FailedAt = &now
	a.FailureReason = ReasonBounced
}

// MarkUnsubscribed records that the recipient opted out.
func (a *Analytics) MarkUnsubscribed(now time.Time) {
	a.Status = StatusUnsubscribed
	a.FailedAt = &now
	a.FailureReason = ReasonUnsubscribed
}

// Delivered reports whether the message reached the recipient.
func (a *Analytics) Delivered() bool {
	return a.Status == StatusDelivered || a.Status == StatusRead
}

// Succeeded reports whether the message was handed to the provider,
// whether or not delivery has been confirmed yet.
func (a *Analytics) Succeeded() bool {
	return a.Status == StatusSent || a.Delivered()
}

// Failed reports whether the attempt ended in any failure state.
func (a *Analytics) Failed() bool {
	return a.Status == StatusFailed || a.Status == StatusBounced || a.Status == StatusUnsubscribed
}

// DeliveryTime is the latency from send to delivery confirmation, or zero
// when either timestamp is missing.
func (a *Analytics) DeliveryTime() time.Duration {
	return span(a.SentAt, a.DeliveredAt)
}

// ReadTime is the latency from delivery to read, or zero when either
// timestamp is missing.
func (a *Analytics) ReadTime() time.Duration {
	return span(a.DeliveredAt, a.ReadAt)
}

// TotalTime is the latency from send to read, or zero when either
// timestamp is missing.
func (a *Analytics) TotalTime() time.Duration {
	return span(a.SentAt, a.ReadAt)
}

func span(from, to *time.Time) time.Duration {
	if from == nil || to == nil {
		return 0
	}
	return to.Sub(*from)
}
