package events

import "time"

// LifecycleEvent identifies a delivery-lifecycle transition published to
// webhook subscribers. Webhook configurations subscribe by event type, not
// by notification identity.
type LifecycleEvent string

const (
	NotificationScheduled    LifecycleEvent = "notification.scheduled"
	NotificationSent         LifecycleEvent = "notification.sent"
	NotificationDelivered    LifecycleEvent = "notification.delivered"
	NotificationRead         LifecycleEvent = "notification.read"
	NotificationFailed       LifecycleEvent = "notification.failed"
	NotificationBounced      LifecycleEvent = "notification.bounced"
	NotificationUnsubscribed LifecycleEvent = "notification.unsubscribed"
	NotificationCancelled    LifecycleEvent = "notification.cancelled"
)

// Event is the lifecycle payload delivered to webhook subscribers and
// internal observers.
type Event struct {
	Type           LifecycleEvent `json:"eventType"`
	NotificationID string         `json:"notificationId"`
	Status         string         `json:"status"`
	Timestamp      time.Time      `json:"timestamp"`
}

// LifecycleEvents lists all lifecycle event types in publication order.
func LifecycleEvents() []LifecycleEvent {
	return []LifecycleEvent{
		NotificationScheduled,
		NotificationSent,
		NotificationDelivered,
		NotificationRead,
		NotificationFailed,
		NotificationBounced,
		NotificationUnsubscribed,
		NotificationCancelled,
	}
}
