package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	key := NewSlotKey("DOC001", time.Now(), SlotMorning)

	const n = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithSlotLock(context.Background(), key, func(context.Context) error {
				// Unsynchronized increment; only safe if the lock works.
				counter++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	keyA := NewSlotKey("DOC001", time.Now(), SlotMorning)
	keyB := NewSlotKey("DOC002", time.Now(), SlotMorning)

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = m.WithSlotLock(context.Background(), keyA, func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding

	done := make(chan struct{})
	go func() {
		_ = m.WithSlotLock(context.Background(), keyB, func(context.Context) error {
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different slot key blocked")
	}

	close(release)
}

func TestKeyedMutex_CancelledContext(t *testing.T) {
	m := NewKeyedMutex()
	key := NewSlotKey("DOC001", time.Now(), SlotMorning)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.WithSlotLock(ctx, key, func(context.Context) error {
		t.Fatal("critical section must not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestKeyedMutex_PropagatesError(t *testing.T) {
	m := NewKeyedMutex()
	key := NewSlotKey("DOC001", time.Now(), SlotMorning)

	err := m.WithSlotLock(context.Background(), key, func(context.Context) error {
		return ErrSlotFull
	})
	require.ErrorIs(t, err, ErrSlotFull)
}
