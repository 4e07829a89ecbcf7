package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/templates"
)

// Message is the channel-agnostic payload handed to a ChannelSender. The
// core never speaks a channel's wire protocol; senders own that.
type Message struct {
	NotificationID uuid.UUID
	UserID         string
	Type           events.Type
	Channel        events.Channel
	Content        templates.Rendered
	Destination    string
	Priority       int
}

// ChannelSender delivers a rendered message over one channel. It returns an
// opaque provider response for the analytics row. Errors should be wrapped
// in ErrBounced or ErrUnsubscribed when the provider signals a permanent
// failure; all other errors are treated as transient and retried.
type ChannelSender interface {
	Channel() events.Channel
	Send(ctx context.Context, msg Message) (providerResponse string, err error)
}

// Permanent delivery failures signalled by channel providers. These are
// terminal for the analytics row and never retried, regardless of the
// notification's remaining retry budget.
var (
	ErrBounced      = errors.New("message bounced")
	ErrUnsubscribed = errors.New("user unsubscribed")
)

// Permanent reports whether the sender error rules out any retry.
func Permanent(err error) bool {
	return errors.Is(err, ErrBounced) || errors.Is(err, ErrUnsubscribed)
}
