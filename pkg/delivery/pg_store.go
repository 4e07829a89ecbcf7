package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/pg"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed analytics store.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGStore{pool: pool}, nil
}

const analyticsColumns = `id, notification_id, user_id, channel, status,
	sent_at, delivered_at, read_at, failed_at,
	attempts, failure_reason, provider_response, created_at`

// Create implements Store.
func (s *PGStore) Create(ctx context.Context, row *Analytics) error {
	if row == nil {
		return ErrStoreNil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_analytics (`+analyticsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		row.ID, row.NotificationID, row.UserID, string(row.Channel), string(row.Status),
		row.SentAt, row.DeliveredAt, row.ReadAt, row.FailedAt,
		row.Attempts, row.FailureReason, row.ProviderResponse, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analytics row: %w", err)
	}
	return nil
}

// Update implements Store.
func (s *PGStore) Update(ctx context.Context, row *Analytics) error {
	if row == nil {
		return ErrStoreNil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_analytics SET
			status = $2, sent_at = $3, delivered_at = $4, read_at = $5,
			failed_at = $6, attempts = $7, failure_reason = $8,
			provider_response = $9
		WHERE id = $1`,
		row.ID, string(row.Status), row.SentAt, row.DeliveredAt, row.ReadAt,
		row.FailedAt, row.Attempts, row.FailureReason, row.ProviderResponse)
	if err != nil {
		return fmt.Errorf("failed to update analytics row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalyticsNotFound
	}
	return nil
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Analytics, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+analyticsColumns+`
		FROM notification_analytics WHERE id = $1`, id)

	a, err := scanAnalytics(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("failed to load analytics row: %w", err)
	}
	return a, nil
}

// ListByNotification implements Store.
func (s *PGStore) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]Analytics, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+analyticsColumns+`
		FROM notification_analytics
		WHERE notification_id = $1
		ORDER BY created_at ASC`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics rows: %w", err)
	}
	defer rows.Close()

	var out []Analytics
	for rows.Next() {
		a, err := scanAnalytics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analytics row: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAnalytics(row pgx.Row) (*Analytics, error) {
	var (
		a       Analytics
		channel string
		status  string
	)
	err := row.Scan(
		&a.ID, &a.NotificationID, &a.UserID, &channel, &status,
		&a.SentAt, &a.DeliveredAt, &a.ReadAt, &a.FailedAt,
		&a.Attempts, &a.FailureReason, &a.ProviderResponse, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Channel = events.Channel(channel)
	a.Status = Status(status)
	return &a, nil
}
