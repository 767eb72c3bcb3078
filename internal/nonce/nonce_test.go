package nonce

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl), mr
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rdv:nonce:booking_create:abc", key(ActionBookingCreate, "abc"))
}

func TestNewRedisStore_DefaultTTL(t *testing.T) {
	s := NewRedisStore(nil, 0)
	assert.Equal(t, 12*time.Hour, s.ttl)
}

// Malformed tokens are rejected before Redis is reached.
func TestRejectsMalformedTokens(t *testing.T) {
	s := NewRedisStore(nil, time.Minute)
	ctx := context.Background()

	for _, tok := range []string{"", "not-a-uuid", "../../etc"} {
		assert.ErrorIs(t, s.Consume(ctx, ActionBookingCreate, tok), ErrInvalidNonce)
		assert.ErrorIs(t, s.Verify(ctx, ActionBookingCreate, tok), ErrInvalidNonce)
	}
}

func TestRedisStore_ConsumeOnce(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := s.Issue(ctx, ActionBookingCreate)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key(ActionBookingCreate, token)))

	require.NoError(t, s.Verify(ctx, ActionBookingCreate, token))
	require.NoError(t, s.Verify(ctx, ActionBookingCreate, token), "verify does not spend the token")

	require.NoError(t, s.Consume(ctx, ActionBookingCreate, token))
	assert.ErrorIs(t, s.Consume(ctx, ActionBookingCreate, token), ErrInvalidNonce)
	assert.ErrorIs(t, s.Verify(ctx, ActionBookingCreate, token), ErrInvalidNonce)
}

func TestRedisStore_BoundToAction(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := s.Issue(ctx, ActionBookingCreate)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Consume(ctx, ActionBookingCancel, token), ErrInvalidNonce)
	assert.NoError(t, s.Consume(ctx, ActionBookingCreate, token))
}

func TestRedisStore_Expires(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	token, err := s.Issue(ctx, ActionBookingCancel)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(key(ActionBookingCancel, token)))

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, s.Consume(ctx, ActionBookingCancel, token), ErrInvalidNonce)
}

func TestRedisStore_UnknownToken(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	tok := "5f0c7a52-6b8e-4d4f-9a8e-2b1c3d4e5f60"
	assert.ErrorIs(t, s.Verify(ctx, ActionBookingCreate, tok), ErrInvalidNonce)
	assert.ErrorIs(t, s.Consume(ctx, ActionBookingCreate, tok), ErrInvalidNonce)
}

func TestRedisStore_BackendDown(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := s.Issue(ctx, ActionBookingCreate)
	require.NoError(t, err)
	mr.Close()

	err = s.Consume(ctx, ActionBookingCreate, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidNonce)
}
