package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWithLockSerializesSamePlayer(t *testing.T) {
	pl := NewPlayerLock()

	const goroutines = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pl.WithLock(42, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
	assert.Zero(t, pl.Size(), "entries should be released after use")
}

func TestTryWithLockBusy(t *testing.T) {
	pl := NewPlayerLock()

	pl.Lock(7)
	err := pl.TryWithLock(7, func() error { return nil })
	assert.ErrorIs(t, err, ErrLockBusy)

	// A different player is unaffected.
	err = pl.TryWithLock(8, func() error { return nil })
	assert.NoError(t, err)

	pl.Unlock(7)
	err = pl.TryWithLock(7, func() error { return nil })
	assert.NoError(t, err)
	assert.Zero(t, pl.Size())
}

func TestDifferentPlayersDoNotBlock(t *testing.T) {
	pl := NewPlayerLock()

	pl.Lock(1)
	done := make(chan struct{})
	go func() {
		pl.Lock(2)
		pl.Unlock(2)
		close(done)
	}()

	<-done
	pl.Unlock(1)
	assert.Zero(t, pl.Size())
}

// Under any interleaving of lock/unlock pairs across players, every
// critical section runs exactly once and the table drains to empty.
func TestLockTableDrainsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pl := NewPlayerLock()
		players := rapid.SliceOfN(rapid.Int64Range(1, 5), 1, 30).Draw(t, "players")

		var wg sync.WaitGroup
		var mu sync.Mutex
		runs := 0
		for _, id := range players {
			wg.Add(1)
			go func(playerID int64) {
				defer wg.Done()
				_ = pl.WithLock(playerID, func() error {
					mu.Lock()
					runs++
					mu.Unlock()
					return nil
				})
			}(id)
		}
		wg.Wait()

		require.Equal(t, len(players), runs)
		require.Zero(t, pl.Size())
	})
}
