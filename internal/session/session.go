// Package session implements the in-memory treasure hunt engine: hidden
// point generation, proximity detection against the live location feed,
// prize resolution and session lifecycle.
package session

import (
	"errors"
	"sync"
	"time"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/geo"
)

// Engine errors. Balance and daily-limit failures surface as the ledger
// package's sentinel errors; invalid coordinates as geo.ErrInvalidLocation.
var (
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionExists   = errors.New("session already active")
)

// HiddenPoint is one generated coordinate the player must approach.
// Found is monotonic: it flips false->true exactly once and the point is
// never re-generated.
type HiddenPoint struct {
	Location    geo.Point
	HasPrize    bool
	PrizeAmount int64
	Found       bool

	// lastProgress is the proximity percentage last reported for this
	// point, used to suppress duplicate notifications. Points are
	// addressed by their index in the session's point slice.
	lastProgress int
}

// Session is one player's active hunt. At most one session exists per
// player; the store is keyed by player id.
type Session struct {
	PlayerID     int64
	ChatID       int64
	Mode         *economy.Mode
	Center       geo.Point
	Points       []HiddenPoint
	FoundOrder   []int
	TotalPayout  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LiveTracking bool
}

// FoundCount returns the number of discovered points.
func (s *Session) FoundCount() int {
	return len(s.FoundOrder)
}

// Completed reports whether every hidden point has been found.
func (s *Session) Completed() bool {
	return len(s.FoundOrder) == len(s.Points)
}

// Summary describes a finished or cancelled session.
type Summary struct {
	Mode        *economy.Mode
	Found       int
	Total       int
	TotalPayout int64
	Elapsed     time.Duration
	Cancelled   bool
}

// Store abstracts the active-session table keyed by player id, so the
// in-memory table can be swapped for a concurrent-safe or persistent one
// without touching engine logic.
type Store interface {
	Get(playerID int64) (*Session, bool)
	Put(s *Session)
	Delete(playerID int64)
	Len() int
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore creates an empty session table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// Get implements Store.
func (m *MemoryStore) Get(playerID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[playerID]
	return s, ok
}

// Put implements Store.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.PlayerID] = s
}

// Delete implements Store.
func (m *MemoryStore) Delete(playerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, playerID)
}

// Len implements Store.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
