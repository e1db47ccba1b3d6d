package queue

import (
	"context"
	"sync"
)

// Locker guards the slot-scoped critical sections of booking and
// advancing. Operations on different slot keys must never contend.
type Locker interface {
	WithSlotLock(ctx context.Context, key SlotKey, fn func(ctx context.Context) error) error
}

// KeyedMutex is an in-process Locker for single-node deployments and
// tests; the Redis locker in internal/redis is its distributed
// counterpart. Unlike the Redis lock it blocks instead of failing when
// the slot is busy.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*slotLock)}
}

func (m *KeyedMutex) WithSlotLock(ctx context.Context, key SlotKey, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := m.acquire(key.String())
	l.mu.Lock()
	defer func() {
		l.mu.Unlock()
		m.release(key.String())
	}()

	return fn(ctx)
}

func (m *KeyedMutex) acquire(key string) *slotLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &slotLock{}
		m.locks[key] = l
	}
	l.refs++
	return l
}

func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}
