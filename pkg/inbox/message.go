package inbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
)

// Message is one in-app inbox entry. Unlike the transient channels, inbox
// messages persist until the user deletes them and carry their own read
// lifecycle surfaced back into delivery analytics.
type Message struct {
	ID             uuid.UUID      `json:"id"`
	UserID         string         `json:"user_id"`
	NotificationID uuid.UUID      `json:"notification_id"`
	Type           events.Type    `json:"type"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Data           map[string]any `json:"data,omitempty"`

	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// MarkRead flags the message read at the given time. Idempotent: the first
// read timestamp wins.
func (m *Message) MarkRead(now time.Time) {
	if m.Read {
		return
	}
	m.Read = true
	m.ReadAt = &now
}

// Expired reports whether the message has passed its expiry.
func (m *Message) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}
