// Package ledger provides per-player economic bookkeeping: balances, an
// append-only transaction log, daily play limits, the daily bonus and
// XP/achievement tracking.
package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"geohunter-bot/internal/model"
)

// Ledger errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrBonusClaimed        = errors.New("daily bonus already claimed")
	ErrDailyLimitExceeded  = errors.New("daily play limit exceeded")
)

// Store abstracts balance and transaction persistence so the engine can run
// against an in-memory table or the relational schema without change.
type Store interface {
	// Balance returns the player's current balance, creating a zero
	// account if none exists.
	Balance(ctx context.Context, playerID int64) (int64, error)

	// AdjustBalance atomically applies a signed delta. It returns
	// ErrInsufficientBalance (and leaves the balance unchanged) if the
	// result would be negative.
	AdjustBalance(ctx context.Context, playerID int64, delta int64) (int64, error)

	// AppendTransaction records a balance change.
	AppendTransaction(ctx context.Context, tx *model.Transaction) error

	// Transactions returns the player's most recent transactions,
	// newest first.
	Transactions(ctx context.Context, playerID int64, limit int) ([]*model.Transaction, error)
}

// MemStore is an in-memory Store. Used by tests and demo mode; the
// relational implementation lives in internal/repository.
type MemStore struct {
	mu       sync.Mutex
	balances map[int64]int64
	log      map[int64][]*model.Transaction
	nextID   int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		balances: make(map[int64]int64),
		log:      make(map[int64][]*model.Transaction),
	}
}

// Balance implements Store.
func (s *MemStore) Balance(_ context.Context, playerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[playerID], nil
}

// AdjustBalance implements Store.
func (s *MemStore) AdjustBalance(_ context.Context, playerID int64, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.balances[playerID] + delta
	if next < 0 {
		return s.balances[playerID], ErrInsufficientBalance
	}
	s.balances[playerID] = next
	return next, nil
}

// AppendTransaction implements Store.
func (s *MemStore) AppendTransaction(_ context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	recorded := *tx
	recorded.TransactionID = s.nextID
	if recorded.CreatedAt.IsZero() {
		recorded.CreatedAt = time.Now()
	}
	s.log[tx.UserID] = append(s.log[tx.UserID], &recorded)
	return nil
}

// Transactions implements Store.
func (s *MemStore) Transactions(_ context.Context, playerID int64, limit int) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.log[playerID]
	out := make([]*model.Transaction, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionID > out[j].TransactionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
