// Package handle provides process-wide collaborator handles that are created
// on first use and shared by every request afterwards.
package handle

import (
	"context"
	"sync"
)

// Lazy builds a value at most once. Concurrent callers block until the first
// build finishes and then all observe the same value or the same error.
// A failed build is not retried.
type Lazy[T any] struct {
	once  sync.Once
	build func(context.Context) (T, error)
	value T
	err   error
	built bool
	mu    sync.Mutex
}

// NewLazy wraps build. build receives the context of the first Get call.
func NewLazy[T any](build func(context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Ready wraps an already constructed value.
func Ready[T any](value T) *Lazy[T] {
	l := &Lazy[T]{value: value, built: true}
	l.once.Do(func() {})
	return l
}

// Get returns the shared value, building it on first call.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.once.Do(func() {
		v, err := l.build(ctx)
		l.mu.Lock()
		l.value, l.err, l.built = v, err, true
		l.mu.Unlock()
	})
	return l.value, l.err
}

// Peek returns the value only if it was already built successfully.
// It never triggers construction, so shutdown paths can use it.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.built || l.err != nil {
		var zero T
		return zero, false
	}
	return l.value, true
}
