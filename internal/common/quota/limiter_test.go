package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLimiter(client, "test", limit, window), mr
}

func TestLimiter_ExceedsAfterLimit(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, 3, time.Minute)
	fixed := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "adzuna"), "call %d", i+1)
	}

	err := l.Allow(ctx, "adzuna")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	remaining, err := l.Remaining(ctx, "adzuna")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestLimiter_ResetsNextWindow(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, 1, time.Minute)
	current := time.Date(2026, 1, 1, 12, 0, 59, 0, time.UTC)
	l.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "adzuna"))
	require.ErrorIs(t, l.Allow(ctx, "adzuna"), ErrQuotaExceeded)

	current = current.Add(2 * time.Second)
	require.NoError(t, l.Allow(ctx, "adzuna"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "adzuna"))
	require.NoError(t, l.Allow(ctx, "other"))
}

func TestLimiter_SetsExpiry(t *testing.T) {
	t.Parallel()

	l, mr := newTestLimiter(t, 5, time.Minute)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	require.NoError(t, l.Allow(context.Background(), "adzuna"))

	key := l.makeKey("adzuna", fixed)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 61*time.Second, mr.TTL(key))

	remaining, err := l.Remaining(context.Background(), "adzuna")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestLimiter_RedisDown(t *testing.T) {
	t.Parallel()

	l, mr := newTestLimiter(t, 5, time.Minute)
	mr.Close()

	err := l.Allow(context.Background(), "adzuna")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuotaExceeded))
}
