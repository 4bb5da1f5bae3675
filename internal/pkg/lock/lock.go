// Package lock provides per-player mutual exclusion. Two concurrent
// location updates for the same player must not double-resolve a discovery,
// so every engine and ledger mutation runs under the player's lock.
package lock

import (
	"errors"
	"sync"
)

// ErrLockBusy is returned by TryWithLock when the player's lock is held.
var ErrLockBusy = errors.New("player lock is busy")

type entry struct {
	mu      sync.Mutex
	waiters int
}

// PlayerLock maintains one mutex per player id. Entries are dropped once
// the last holder releases, so the table does not grow with the number of
// players ever seen.
type PlayerLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewPlayerLock creates an empty lock table.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{entries: make(map[int64]*entry)}
}

func (pl *PlayerLock) acquireEntry(playerID int64) *entry {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	e, ok := pl.entries[playerID]
	if !ok {
		e = &entry{}
		pl.entries[playerID] = e
	}
	e.waiters++
	return e
}

func (pl *PlayerLock) releaseEntry(playerID int64, e *entry) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	e.waiters--
	if e.waiters == 0 {
		delete(pl.entries, playerID)
	}
}

// Lock acquires the lock for a player, blocking until available.
func (pl *PlayerLock) Lock(playerID int64) {
	e := pl.acquireEntry(playerID)
	e.mu.Lock()
}

// Unlock releases the lock for a player.
func (pl *PlayerLock) Unlock(playerID int64) {
	pl.mu.Lock()
	e, ok := pl.entries[playerID]
	pl.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Unlock()
	pl.releaseEntry(playerID, e)
}

// WithLock runs fn while holding the player's lock.
func (pl *PlayerLock) WithLock(playerID int64, fn func() error) error {
	pl.Lock(playerID)
	defer pl.Unlock(playerID)
	return fn()
}

// TryWithLock runs fn if the player's lock can be acquired without
// blocking; otherwise it returns ErrLockBusy.
func (pl *PlayerLock) TryWithLock(playerID int64, fn func() error) error {
	e := pl.acquireEntry(playerID)
	if !e.mu.TryLock() {
		pl.releaseEntry(playerID, e)
		return ErrLockBusy
	}
	defer func() {
		e.mu.Unlock()
		pl.releaseEntry(playerID, e)
	}()
	return fn()
}

// Size returns the number of live lock entries. Exposed for tests.
func (pl *PlayerLock) Size() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.entries)
}
