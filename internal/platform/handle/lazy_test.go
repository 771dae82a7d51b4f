package handle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct{ id int }

func TestLazy_BuildsOnceUnderConcurrency(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func(context.Context) (*client, error) {
		n := builds.Add(1)
		return &client{id: int(n)}, nil
	})

	const callers = 50
	results := make([]*client, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := lazy.Get(context.Background())
			require.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestLazy_ErrorIsSticky(t *testing.T) {
	var builds atomic.Int32
	boom := errors.New("dial tcp: connection refused")
	lazy := NewLazy(func(context.Context) (*client, error) {
		builds.Add(1)
		return nil, boom
	})

	_, err := lazy.Get(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = lazy.Get(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), builds.Load())

	_, ok := lazy.Peek()
	assert.False(t, ok)
}

func TestLazy_PeekDoesNotBuild(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func(context.Context) (*client, error) {
		builds.Add(1)
		return &client{}, nil
	})

	_, ok := lazy.Peek()
	assert.False(t, ok)
	assert.Zero(t, builds.Load())

	_, err := lazy.Get(context.Background())
	require.NoError(t, err)
	_, ok = lazy.Peek()
	assert.True(t, ok)
}

func TestReady(t *testing.T) {
	c := &client{id: 7}
	lazy := Ready(c)

	got, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, got)

	peeked, ok := lazy.Peek()
	assert.True(t, ok)
	assert.Same(t, c, peeked)
}
