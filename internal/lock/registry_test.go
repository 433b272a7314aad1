package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockIsExclusive(t *testing.T) {
	r := NewRegistry()

	require.True(t, r.Lock(1))
	require.False(t, r.Lock(1), "second acquire must fail before release")
	require.True(t, r.IsLocked(1))

	// 不相关的行程互不影响
	require.True(t, r.Lock(2))

	r.Unlock(1)
	require.False(t, r.IsLocked(1))
	require.True(t, r.Lock(1))
}

func TestLockConcurrentSingleWinner(t *testing.T) {
	r := NewRegistry()

	const attempts = 100
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Lock(42) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load(), "exactly one goroutine may win the lock")
}

func TestLockForUpdatingTimesOut(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Lock(7))

	start := time.Now()
	ok := r.LockForUpdating(context.Background(), 7, 100*time.Millisecond, 10*time.Millisecond)
	elapsed := time.Since(start)

	require.False(t, ok)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
}

func TestLockForUpdatingAcquiresAfterRelease(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Lock(7))

	go func() {
		time.Sleep(50 * time.Millisecond)
		r.Unlock(7)
	}()

	ok := r.LockForUpdating(context.Background(), 7, time.Second, 10*time.Millisecond)
	require.True(t, ok)
	require.True(t, r.IsLocked(7))
}

func TestLockForUpdatingHonorsContext(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Lock(7))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	ok := r.LockForUpdating(ctx, 7, 5*time.Second, 10*time.Millisecond)
	require.False(t, ok)
}
