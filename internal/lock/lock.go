package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker guards a critical section identified by key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Noop runs fn without any mutual exclusion.
type Noop struct{}

func (Noop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Local serializes callers within one process, one slot per key. A caller
// waiting for a held key gives up when its context ends.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot }()

	return fn(ctx)
}
