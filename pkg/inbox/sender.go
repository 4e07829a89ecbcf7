package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/events"
)

// Sender adapts an inbox Storage to the in-app delivery channel. Delivery
// here means persisting a Message the user's client can list later; the
// stored message id is returned as the provider response.
type Sender struct {
	storage   Storage
	retention time.Duration
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithRetention caps how long delivered messages stay listed. Zero keeps
// them until the user deletes them.
func WithRetention(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewSender creates the in-app channel sender.
func NewSender(storage Storage, opts ...SenderOption) (*Sender, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	s := &Sender{storage: storage}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Channel implements delivery.ChannelSender.
func (s *Sender) Channel() events.Channel {
	return events.ChannelInApp
}

// Send implements delivery.ChannelSender.
func (s *Sender) Send(ctx context.Context, msg delivery.Message) (string, error) {
	now := time.Now()
	entry := Message{
		ID:             uuid.New(),
		UserID:         msg.UserID,
		NotificationID: msg.NotificationID,
		Type:           msg.Type,
		Title:          msg.Content.Subject,
		Body:           msg.Content.Body,
		CreatedAt:      now,
	}
	if s.retention > 0 {
		expiresAt := now.Add(s.retention)
		entry.ExpiresAt = &expiresAt
	}

	if err := s.storage.Create(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to deliver inbox message: %w", err)
	}
	return entry.ID.String(), nil
}
