package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"casestatus/internal/ratelimit/models"
)

const redisKeyPrefix = "casestatus:ratelimit:"

// RedisStore counts requests in fixed windows shared by every replica.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func windowKey(key string, start time.Time) string {
	return fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, start.Unix())
}

// Allow increments the counter of the current window. The counter expires
// with its window, so no cleanup is needed.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	start := now.Truncate(window)
	resetAt := start.Add(window)
	redisKey := windowKey(key, start)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > limit {
		return models.Deny(limit, resetAt, now), nil
	}
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
