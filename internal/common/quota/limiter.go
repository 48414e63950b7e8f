package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQuotaExceeded is returned once the current window's budget is spent
var ErrQuotaExceeded = errors.New("request quota exceeded")

// Limiter is a fixed-window request counter shared through Redis,
// so several dashboard processes draw from one API key budget
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a new Redis-based quota limiter
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = "quota"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow consumes one unit from key's current window.
// Returns ErrQuotaExceeded when the window is already full.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	start := l.now().Truncate(l.window)
	redisKey := l.makeKey(key, start)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}

	if incr.Val() > l.limit {
		return fmt.Errorf("%w: %d requests per %s for %s", ErrQuotaExceeded, l.limit, l.window, key)
	}
	return nil
}

// Remaining reports how many requests key may still make in the current window
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := l.makeKey(key, l.now().Truncate(l.window))
	used, err := l.client.Get(ctx, redisKey).Int64()
	if err == redis.Nil {
		return int(l.limit), nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	if used >= l.limit {
		return 0, nil
	}
	return int(l.limit - used), nil
}

func (l *Limiter) makeKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, key, strconv.FormatInt(windowStart.Unix(), 10))
}
