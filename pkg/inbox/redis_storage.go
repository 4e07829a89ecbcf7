package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage on Redis. Each message lives in its own
// key carrying the expiry TTL; a per-user sorted set scored by creation time
// keeps the listing order. Index entries for expired messages are pruned
// lazily on read.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage creates a Redis-backed inbox store.
func NewRedisStorage(client *redis.Client) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrStorageNil
	}
	return &RedisStorage{client: client}, nil
}

func messageKey(userID string, id uuid.UUID) string {
	return fmt.Sprintf("inbox:msg:%s:%s", userID, id)
}

func indexKey(userID string) string {
	return fmt.Sprintf("inbox:idx:%s", userID)
}

// Create implements Storage.
func (s *RedisStorage) Create(ctx context.Context, msg Message) error {
	key := messageKey(msg.UserID, msg.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check inbox message: %w", err)
	}
	if exists > 0 {
		return ErrMessageExists
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode inbox message: %w", err)
	}

	var ttl time.Duration
	if msg.ExpiresAt != nil {
		ttl = time.Until(*msg.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.ZAdd(ctx, indexKey(msg.UserID), redis.Z{
		Score:  float64(msg.CreatedAt.UnixNano()),
		Member: msg.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store inbox message: %w", err)
	}
	return nil
}

// Get implements Storage.
func (s *RedisStorage) Get(ctx context.Context, userID string, id uuid.UUID) (*Message, error) {
	payload, err := s.client.Get(ctx, messageKey(userID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		// The message key expired; drop the stale index entry.
		_ = s.client.ZRem(ctx, indexKey(userID), id.String()).Err()
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode inbox message: %w", err)
	}
	return &msg, nil
}

// List implements Storage. Results come back newest first straight from the
// sorted-set index.
func (s *RedisStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Message, error) {
	msgs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []Message
	for _, m := range msgs {
		if opts.OnlyUnread && m.Read {
			continue
		}
		if opts.Since != nil && !m.CreatedAt.After(*opts.Since) {
			continue
		}
		out = append(out, m)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// MarkRead implements Storage.
func (s *RedisStorage) MarkRead(ctx context.Context, userID string, ids ...uuid.UUID) ([]Message, error) {
	now := time.Now()
	var transitioned []Message
	for _, id := range ids {
		msg, err := s.Get(ctx, userID, id)
		if errors.Is(err, ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if msg.Read {
			continue
		}

		msg.MarkRead(now)
		payload, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode inbox message: %w", err)
		}
		// KeepTTL preserves the expiry set at creation.
		if err := s.client.Set(ctx, messageKey(userID, id), payload, redis.KeepTTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to update inbox message: %w", err)
		}
		transitioned = append(transitioned, *msg)
	}
	return transitioned, nil
}

// Delete implements Storage.
func (s *RedisStorage) Delete(ctx context.Context, userID string, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	members := make([]any, 0, len(ids))
	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, messageKey(userID, id))
		members = append(members, id.String())
	}
	pipe.ZRem(ctx, indexKey(userID), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete inbox messages: %w", err)
	}
	return nil
}

// CountUnread implements Storage.
func (s *RedisStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	msgs, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range msgs {
		if !m.Read {
			count++
		}
	}
	return count, nil
}

// load fetches every live message for the user in index order, pruning index
// entries whose keys have expired.
func (s *RedisStorage) load(ctx context.Context, userID string) ([]Message, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("inbox:msg:%s:%s", userID, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox messages: %w", err)
	}

	var stale []any
	msgs := make([]Message, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode inbox message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, indexKey(userID), stale...).Err()
	}
	return msgs, nil
}
