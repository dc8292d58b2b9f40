package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter счетчик запросов в фиксированном окне, общий для всех экземпляров сервиса
type RateLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter создает ограничитель: не больше limit запросов на ключ за window
func NewRateLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow учитывает запрос. При отказе возвращает время до начала следующего окна.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	counterKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to count request: %w", err)
	}

	if count.Val() > l.limit {
		return false, windowStart.Add(l.window).Sub(now), nil
	}

	return true, 0, nil
}
