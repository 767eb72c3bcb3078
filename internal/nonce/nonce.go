package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	ActionBookingCreate = "booking_create"
	ActionBookingCancel = "booking_cancel"
)

var ErrInvalidNonce = errors.New("invalid_nonce")

// Store issues single-use tokens bound to an action.
type Store interface {
	Issue(ctx context.Context, action string) (string, error)

	// Verify checks the token without spending it.
	Verify(ctx context.Context, action, token string) error

	// Consume succeeds at most once per issued token.
	Consume(ctx context.Context, action, token string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(action, token string) string {
	return fmt.Sprintf("rdv:nonce:%s:%s", action, token)
}

func (s *RedisStore) Issue(ctx context.Context, action string) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, key(action, token), 1, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store nonce: %w", err)
	}
	return token, nil
}

func wellFormed(token string) bool {
	if token == "" {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}

func (s *RedisStore) Verify(ctx context.Context, action, token string) error {
	if !wellFormed(token) {
		return ErrInvalidNonce
	}

	n, err := s.rdb.Exists(ctx, key(action, token)).Result()
	if err != nil {
		return fmt.Errorf("verify nonce: %w", err)
	}
	if n != 1 {
		return ErrInvalidNonce
	}
	return nil
}

// Consume deletes the key; only the caller whose DEL removed it wins.
func (s *RedisStore) Consume(ctx context.Context, action, token string) error {
	if !wellFormed(token) {
		return ErrInvalidNonce
	}

	n, err := s.rdb.Del(ctx, key(action, token)).Result()
	if err != nil {
		return fmt.Errorf("consume nonce: %w", err)
	}
	if n != 1 {
		return ErrInvalidNonce
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
