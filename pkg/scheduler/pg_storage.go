package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/pg"
)

// PGStorage implements Repository on PostgreSQL. Claim atomicity comes from
// a conditional UPDATE over a FOR UPDATE SKIP LOCKED selection, so multiple
// scheduler instances can poll the same table without coordination.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a PostgreSQL-backed scheduled-notification store.
func NewPGStorage(pool *pgxpool.Pool) (*PGStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PGStorage{pool: pool}, nil
}

const notificationColumns = `id, user_id, title, message, type, kind, status,
	scheduled_for, retry_count, max_retries, retry_interval_ns, next_retry_at,
	recurrence_pattern, condition_expression, template_key, template_vars,
	channels, priority, source, failure_reason, locked_by, locked_until,
	sent_at, created_at, updated_at`

// Create implements Repository.
func (s *PGStorage) Create(ctx context.Context, n *Notification) error {
	if n == nil {
		return ErrNotificationNil
	}

	vars, err := marshalVars(n.TemplateVars)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), string(n.Kind), string(n.Status),
		n.ScheduledFor, n.RetryCount, n.MaxRetries, int64(n.RetryInterval), n.NextRetryAt,
		n.RecurrencePattern, n.ConditionExpression, n.TemplateKey, vars,
		channelStrings(n.Channels), int(n.Priority), n.Source, n.FailureReason,
		n.LockedBy, n.LockedUntil, n.SentAt, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrNotificationExists
		}
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// Get implements Repository.
func (s *PGStorage) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return n, nil
}

// Update implements Repository.
func (s *PGStorage) Update(ctx context.Context, n *Notification) error {
	if n == nil {
		return ErrNotificationNil
	}

	vars, err := marshalVars(n.TemplateVars)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET
			status = $2, scheduled_for = $3, retry_count = $4,
			next_retry_at = $5, failure_reason = $6, template_vars = $7,
			locked_by = $8, locked_until = $9, sent_at = $10, updated_at = now()
		WHERE id = $1`,
		n.ID, string(n.Status), n.ScheduledFor, n.RetryCount,
		n.NextRetryAt, n.FailureReason, vars,
		n.LockedBy, n.LockedUntil, n.SentAt)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ClaimDue implements Repository. Expired processing locks are released in
// the same statement's selection window, so rows abandoned by crashed
// workers become claimable without a separate sweep.
func (s *PGStorage) ClaimDue(ctx context.Context, workerID uuid.UUID, now time.Time, limit int, lockDuration time.Duration) ([]Notification, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := s.pool.Query(ctx, `
		UPDATE notifications SET
			status = 'processing',
			locked_by = $1,
			locked_until = $2,
			updated_at = now()
		WHERE id IN (
			SELECT id FROM notifications
			WHERE scheduled_for <= $3
			  AND (status = 'scheduled'
			       OR (status = 'processing' AND locked_until < $3))
			ORDER BY priority DESC, scheduled_for ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+notificationColumns,
		workerID, now.Add(lockDuration), now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim notifications: %w", err)
	}
	defer rows.Close()

	var claimed []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claimed notification: %w", err)
		}
		claimed = append(claimed, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claimed notifications: %w", err)
	}
	if len(claimed) == 0 {
		return nil, ErrNothingToClaim
	}
	return claimed, nil
}

// ReviveRetryable implements Repository. One conditional UPDATE covers the
// whole failed set: rows with retry budget left whose backoff elapsed move
// back onto the schedule at their recorded retry time.
func (s *PGStorage) ReviveRetryable(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET
			status = 'scheduled',
			scheduled_for = COALESCE(next_retry_at, $1),
			next_retry_at = NULL,
			locked_by = NULL,
			locked_until = NULL,
			updated_at = now()
		WHERE status = 'failed'
		  AND retry_count < max_retries
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)`,
		now)
	if err != nil {
		return 0, fmt.Errorf("failed to revive retryable notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Cancel implements Repository.
func (s *PGStorage) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET
			status = 'cancelled',
			locked_by = NULL,
			locked_until = NULL,
			updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to cancel notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ListOverdue implements Repository.
func (s *PGStorage) ListOverdue(ctx context.Context, now time.Time) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE status = 'scheduled' AND scheduled_for < $1
		ORDER BY scheduled_for ASC`,
		now.Add(-OverdueThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue notifications: %w", err)
	}
	defer rows.Close()

	var overdue []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overdue notification: %w", err)
		}
		overdue = append(overdue, *n)
	}
	return overdue, rows.Err()
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n           Notification
		typ, kind   string
		status      string
		intervalNS  int64
		vars        []byte
		channels    []string
		priorityInt int
	)
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &kind, &status,
		&n.ScheduledFor, &n.RetryCount, &n.MaxRetries, &intervalNS, &n.NextRetryAt,
		&n.RecurrencePattern, &n.ConditionExpression, &n.TemplateKey, &vars,
		&channels, &priorityInt, &n.Source, &n.FailureReason, &n.LockedBy, &n.LockedUntil,
		&n.SentAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	n.Type = events.Type(typ)
	n.Kind = Kind(kind)
	n.Status = Status(status)
	n.RetryInterval = time.Duration(intervalNS)
	n.Priority = Priority(priorityInt)
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &n.TemplateVars); err != nil {
			return nil, fmt.Errorf("failed to decode template vars: %w", err)
		}
	}
	for _, ch := range channels {
		n.Channels = append(n.Channels, events.Channel(ch))
	}
	return &n, nil
}

func marshalVars(vars map[string]any) ([]byte, error) {
	if vars == nil {
		return nil, nil
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template vars: %w", err)
	}
	return b, nil
}

func channelStrings(channels []events.Channel) []string {
	if channels == nil {
		return nil
	}
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = string(ch)
	}
	return out
}
