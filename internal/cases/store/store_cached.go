package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"casestatus/internal/cases/metrics"
	"casestatus/internal/cases/models"
	"casestatus/pkg/platform/circuit"
)

const (
	redisCaseKeyPrefix   = "casestatus:case:"
	defaultLookupTimeout = 5 * time.Second
)

// Backing is the store the cache reads through to.
type Backing interface {
	FindByKey(ctx context.Context, registrationNumber, nationality string) (*models.CaseRecord, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, record *models.CaseRecord) error
}

// CachedStore caches hits in Redis with a TTL and collapses concurrent
// identical lookups into one backing query. Misses and errors are never
// cached. A failing cache falls back to the backing store, and repeated
// failures open a breaker so Redis is skipped until it recovers.
//
// A coalesced lookup runs detached from the caller that started it, bounded
// by the lookup timeout, so each caller only ever gives up on its own context.
type CachedStore struct {
	backing       Backing
	client        *redis.Client
	ttl           time.Duration
	lookupTimeout time.Duration
	group         singleflight.Group
	breaker       *circuit.Breaker
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// CachedOption configures a CachedStore.
type CachedOption func(*CachedStore)

// WithLookupTimeout bounds the shared backing lookup. Default is 5s.
func WithLookupTimeout(d time.Duration) CachedOption {
	return func(c *CachedStore) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// NewCached wraps backing. client may be nil, which disables caching but
// keeps request coalescing; metrics may be nil.
func NewCached(backing Backing, client *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger, opts ...CachedOption) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CachedStore{
		backing:       backing,
		client:        client,
		ttl:           ttl,
		lookupTimeout: defaultLookupTimeout,
		breaker:       circuit.New("case_cache"),
		metrics:       m,
		logger:        logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// cacheKey hashes the compound key so raw registration numbers never appear in Redis.
func cacheKey(registrationNumber, nationality string) string {
	h := sha256.New()
	h.Write([]byte(registrationNumber))
	h.Write([]byte{0})
	h.Write([]byte(nationality))
	return redisCaseKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedStore) FindByKey(ctx context.Context, registrationNumber, nationality string) (*models.CaseRecord, error) {
	key := cacheKey(registrationNumber, nationality)

	if record, ok := c.get(ctx, key); ok {
		return record, nil
	}

	flight := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		record, err := c.backing.FindByKey(flightCtx, registrationNumber, nationality)
		if err != nil {
			return nil, err
		}
		c.set(flightCtx, key, record)
		return record, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}
	if res.Shared && c.metrics != nil {
		c.metrics.RecordCoalesced()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Shared results are copied so callers cannot mutate each other's record.
	record := *res.Val.(*models.CaseRecord)
	return &record, nil
}

func (c *CachedStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	return c.backing.CountByStatus(ctx)
}

// Save writes through and evicts the cached entry for the record's key.
func (c *CachedStore) Save(ctx context.Context, record *models.CaseRecord) error {
	if err := c.backing.Save(ctx, record); err != nil {
		return err
	}
	if !c.useCache() {
		return nil
	}
	if err := c.client.Del(ctx, cacheKey(record.RegistrationNumber, record.Nationality)).Err(); err != nil {
		c.cacheError(ctx, "delete", err)
		return nil
	}
	c.cacheOK(ctx)
	return nil
}

// useCache consults the breaker; a skipped call is counted as bypassed.
func (c *CachedStore) useCache() bool {
	if c.client == nil {
		return false
	}
	if c.breaker.Allow() {
		return true
	}
	if c.metrics != nil {
		c.metrics.RecordCacheBypassed()
	}
	return false
}

func (c *CachedStore) get(ctx context.Context, key string) (*models.CaseRecord, bool) {
	if !c.useCache() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.cacheOK(ctx)
			if c.metrics != nil {
				c.metrics.RecordCacheMiss()
			}
		} else {
			c.cacheError(ctx, "get", err)
		}
		return nil, false
	}
	c.cacheOK(ctx)

	var record models.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		c.cacheError(ctx, "decode", fmt.Errorf("decode case cache: %w", err))
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
	return &record, true
}

func (c *CachedStore) set(ctx context.Context, key string, record *models.CaseRecord) {
	if c.ttl <= 0 || !c.useCache() {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		c.cacheError(ctx, "set", fmt.Errorf("encode case cache: %w", err))
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.cacheError(ctx, "set", err)
		return
	}
	c.cacheOK(ctx)
}

func (c *CachedStore) cacheOK(ctx context.Context) {
	if c.breaker.RecordSuccess().Closed {
		c.logger.InfoContext(ctx, "case cache recovered", "breaker", c.breaker.Name())
	}
}

// cacheError counts a Redis failure against the breaker. Decode failures are
// bad entries, not an unavailable cache, so they do not trip it.
func (c *CachedStore) cacheError(ctx context.Context, op string, err error) {
	c.logger.WarnContext(ctx, "case cache unavailable", "op", op, "error", err)
	if c.metrics != nil {
		c.metrics.RecordCacheError(op)
	}
	if op == "decode" {
		return
	}
	if c.breaker.RecordFailure().Opened {
		c.logger.WarnContext(ctx, "case cache bypassed until it recovers", "breaker", c.breaker.Name())
	}
}
