package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists scheduled notifications. The one operation the core
// requires beyond plain CRUD is ClaimDue: an atomic conditional state
// transition that grants exactly one worker the right to dispatch a row.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error

	// ClaimDue atomically claims up to limit due scheduled rows,
	// transitioning each scheduled → processing with a lock that expires
	// at now + lockDuration. Two concurrent callers never receive the
	// same row. Returns ErrNothingToClaim when no row is due.
	ClaimDue(ctx context.Context, workerID uuid.UUID, now time.Time, limit int, lockDuration time.Duration) ([]Notification, error)

	// ReviveRetryable atomically re-enters the retry cycle for failed
	// rows whose backoff has elapsed and whose retry budget remains:
	// failed → scheduled at the recorded next retry time. The transition
	// is conditional per row, so a row revived by one scheduler instance
	// is never revived twice. Returns the number of revived rows.
	ReviveRetryable(ctx context.Context, now time.Time) (int, error)

	// Cancel marks the row cancelled unconditionally. Cancelling a row
	// already claimed for dispatch is allowed; the dispatch loop re-checks
	// status before sending and skips cancelled rows.
	Cancel(ctx context.Context, id uuid.UUID) error

	// ListOverdue returns scheduled rows that have sat past their due
	// time longer than the watchdog threshold. A liveness signal for
	// operators, not a transition.
	ListOverdue(ctx context.Context, now time.Time) ([]Notification, error)
}
