package concurrency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockManager(t *testing.T) {
	t.Run("SharedReaders", testSharedReaders)
	t.Run("ExclusiveWriter", testExclusiveWriter)
	t.Run("UnlockMissing", testUnlockMissing)
}

func testSharedReaders(t *testing.T) {
	lm := NewLockManager()
	r := NewResource("f")
	require.NoError(t, lm.Lock(r, R_LOCK))
	done := make(chan struct{})
	go func() {
		lm.Lock(r, R_LOCK)
		lm.Unlock(r, R_LOCK)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader blocked")
	}
	require.NoError(t, lm.Unlock(r, R_LOCK))
}

func testExclusiveWriter(t *testing.T) {
	lm := NewLockManager()
	r := NewResource("f")
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				lm.Lock(r, W_LOCK)
				counter++
				lm.Unlock(r, W_LOCK)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 2000, counter)
}

func testUnlockMissing(t *testing.T) {
	lm := NewLockManager()
	err := lm.Unlock(NewResource("nope"), W_LOCK)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
	// The manager is still usable afterwards.
	require.NoError(t, lm.Lock(NewResource("nope"), W_LOCK))
	require.NoError(t, lm.Unlock(NewResource("nope"), W_LOCK))
}
