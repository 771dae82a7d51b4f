//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casestatus/internal/ratelimit/store"
	"casestatus/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) TestCountsWithinWindow() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.store.Allow(ctx, "lookup:10.0.0.1", 3, time.Hour)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(ctx, "lookup:10.0.0.1", 3, time.Hour)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)
}

func (s *RedisStoreSuite) TestCounterExpiresWithWindow() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "lookup:10.0.0.2", 5, time.Hour)
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "casestatus:ratelimit:lookup:10.0.0.2:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RedisStoreSuite) TestSeparateKeys() {
	ctx := context.Background()

	res, err := s.store.Allow(ctx, "lookup:a", 1, time.Hour)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.Allow(ctx, "lookup:b", 1, time.Hour)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
