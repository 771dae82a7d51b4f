package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casestatus/internal/cases/metrics"
	"casestatus/internal/cases/models"
	"casestatus/pkg/platform/circuit"
)

type slowBacking struct {
	*InMemoryStore
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (b *slowBacking) FindByKey(ctx context.Context, reg, nat string) (*models.CaseRecord, error) {
	b.calls.Add(1)
	if b.release != nil {
		<-b.release
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.InMemoryStore.FindByKey(ctx, reg, nat)
}

// blockingBacking holds lookups until released or until the lookup's own
// context ends.
type blockingBacking struct {
	*InMemoryStore
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingBacking) FindByKey(ctx context.Context, reg, nat string) (*models.CaseRecord, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.InMemoryStore.FindByKey(ctx, reg, nat)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheKey(t *testing.T) {
	key := cacheKey("A123", "MX")
	assert.NotContains(t, key, "A123")
	assert.Equal(t, key, cacheKey("A123", "MX"))
	assert.NotEqual(t, key, cacheKey("A12", "3MX"), "field boundary is part of the key")
	assert.NotEqual(t, key, cacheKey("A123", "mx"))
}

func TestCachedStore_CoalescesConcurrentLookups(t *testing.T) {
	mem := NewInMemory()
	require.NoError(t, mem.Save(context.Background(), newRecord("Jane Doe", "A123", "MX", models.StatusInReview)))
	backing := &slowBacking{InMemoryStore: mem, release: make(chan struct{})}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	cached := NewCached(backing, nil, time.Minute, m, discardLogger())

	const callers = 8
	var (
		wg      sync.WaitGroup
		results = make([]*models.CaseRecord, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := cached.FindByKey(context.Background(), "A123", "MX")
			assert.NoError(t, err)
			results[i] = record
		}()
	}

	require.Eventually(t, func() bool { return backing.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// Give the remaining callers time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(backing.release)
	wg.Wait()

	assert.Less(t, backing.calls.Load(), int32(callers))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "Jane Doe", r.FullName)
	}
	results[0].FullName = "mutated"
	assert.Equal(t, "Jane Doe", results[1].FullName, "coalesced callers get independent copies")
}

func TestCachedStore_PassesErrorsThrough(t *testing.T) {
	backing := &slowBacking{InMemoryStore: NewInMemory(), err: errors.New("db down")}
	cached := NewCached(backing, nil, time.Minute, nil, nil)

	_, err := cached.FindByKey(context.Background(), "A123", "MX")
	assert.EqualError(t, err, "db down")

	_, err = cached.FindByKey(context.Background(), "A123", "MX")
	assert.Error(t, err)
	assert.Equal(t, int32(2), backing.calls.Load(), "errors are not cached")
}

func TestCachedStore_CountAndSaveDelegate(t *testing.T) {
	mem := NewInMemory()
	cached := NewCached(mem, nil, time.Minute, nil, discardLogger())

	require.NoError(t, cached.Save(context.Background(), newRecord("Jane Doe", "A123", "MX", models.StatusApproved)))
	counts, err := cached.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts["approved"])
}

func TestCachedStore_NoCacheMetricsWithoutClient(t *testing.T) {
	mem := NewInMemory()
	require.NoError(t, mem.Save(context.Background(), newRecord("Jane Doe", "A123", "MX", models.StatusApproved)))
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	cached := NewCached(mem, nil, time.Minute, m, discardLogger())

	_, err := cached.FindByKey(context.Background(), "A123", "MX")
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestCachedStore_UnreachableCacheTripsBreaker(t *testing.T) {
	mem := NewInMemory()
	require.NoError(t, mem.Save(context.Background(), newRecord("Jane Doe", "A123", "MX", models.StatusInReview)))
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cached := NewCached(mem, client, time.Minute, m, discardLogger())
	cached.breaker = circuit.New("case_cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))

	for range 3 {
		record, err := cached.FindByKey(context.Background(), "A123", "MX")
		require.NoError(t, err, "a failing cache never fails the lookup")
		assert.Equal(t, "Jane Doe", record.FullName)
	}

	assert.Equal(t, circuit.StateOpen, cached.breaker.State())
	assert.Positive(t, testutil.ToFloat64(m.BypassedTotal))
	assert.Zero(t, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestCachedStore_CallerCancellationDoesNotFailOthers(t *testing.T) {
	mem := NewInMemory()
	require.NoError(t, mem.Save(context.Background(), newRecord("Jane Doe", "A123", "MX", models.StatusInReview)))
	backing := &blockingBacking{InMemoryStore: mem, release: make(chan struct{})}
	cached := NewCached(backing, nil, time.Minute, nil, discardLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.FindByKey(firstCtx, "A123", "MX")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return backing.calls.Load() == 1 }, time.Second, time.Millisecond)

	type outcome struct {
		record *models.CaseRecord
		err    error
	}
	second := make(chan outcome, 1)
	go func() {
		record, err := cached.FindByKey(context.Background(), "A123", "MX")
		second <- outcome{record, err}
	}()
	// Let the second caller join the in-flight lookup.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared lookup")
	}

	close(backing.release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, "Jane Doe", got.record.FullName)
	case <-time.After(time.Second):
		t.Fatal("second caller never got a result")
	}
	assert.Equal(t, int32(1), backing.calls.Load())
}

func TestCachedStore_SharedLookupIsBounded(t *testing.T) {
	backing := &blockingBacking{InMemoryStore: NewInMemory(), release: make(chan struct{})}
	defer close(backing.release)
	cached := NewCached(backing, nil, time.Minute, nil, discardLogger(), WithLookupTimeout(20*time.Millisecond))

	_, err := cached.FindByKey(context.Background(), "A123", "MX")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
