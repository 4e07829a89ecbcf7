package inbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists inbox messages.
type Storage interface {
	Create(ctx context.Context, msg Message) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*Message, error)

	// List returns the user's messages, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Message, error)

	// MarkRead marks the given messages read. Unknown ids are skipped; the
	// returned slice holds the messages that actually transitioned.
	MarkRead(ctx context.Context, userID string, ids ...uuid.UUID) ([]Message, error)

	Delete(ctx context.Context, userID string, ids ...uuid.UUID) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// ListOptions filters and pages List results.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	Since      *time.Time
}
