package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"geohunter-bot/internal/model"
)

// Store adapts the user and transaction repositories to the ledger's
// persistence interface.
type Store struct {
	users *UserRepository
	txs   *TransactionRepository
}

// NewStore creates a relational ledger store over the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		users: NewUserRepository(pool),
		txs:   NewTransactionRepository(pool),
	}
}

// Balance implements ledger.Store.
func (s *Store) Balance(ctx context.Context, playerID int64) (int64, error) {
	return s.users.Balance(ctx, playerID)
}

// AdjustBalance implements ledger.Store.
func (s *Store) AdjustBalance(ctx context.Context, playerID int64, delta int64) (int64, error) {
	return s.users.AdjustBalance(ctx, playerID, delta)
}

// AppendTransaction implements ledger.Store.
func (s *Store) AppendTransaction(ctx context.Context, tx *model.Transaction) error {
	return s.txs.Append(ctx, tx)
}

// Transactions implements ledger.Store.
func (s *Store) Transactions(ctx context.Context, playerID int64, limit int) ([]*model.Transaction, error) {
	return s.txs.GetByUserID(ctx, playerID, limit)
}
