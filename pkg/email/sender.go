package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/events"
)

// Sender adapts a Mailer to the delivery fan-out. Inactive recipients
// surface as bounce errors so the tracker records them as permanent instead
// of feeding the retry cycle.
type Sender struct {
	mailer Mailer
}

// NewSender wraps a mailer as the email channel sender.
func NewSender(mailer Mailer) (*Sender, error) {
	if mailer == nil {
		return nil, fmt.Errorf("%w: mailer is required", ErrInvalidConfig)
	}
	return &Sender{mailer: mailer}, nil
}

// Channel implements delivery.ChannelSender.
func (s *Sender) Channel() events.Channel {
	return events.ChannelEmail
}

// Send implements delivery.ChannelSender.
func (s *Sender) Send(ctx context.Context, msg delivery.Message) (string, error) {
	err := s.mailer.SendEmail(ctx, SendEmailParams{
		SendTo:   msg.Destination,
		Subject:  msg.Content.Subject,
		BodyText: msg.Content.Body,
		BodyHTML: msg.Content.HTMLBody,
		Tag:      string(msg.Type),
	})
	switch {
	case err == nil:
		return "accepted", nil
	case errors.Is(err, ErrRecipientInactive):
		return "", fmt.Errorf("%w: %w", delivery.ErrBounced, err)
	default:
		return "", err
	}
}
