package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"geohunter-bot/internal/model"
)

// TransactionRepository handles the balance-change log.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Append records a balance change.
func (r *TransactionRepository) Append(ctx context.Context, tx *model.Transaction) error {
	const query = `
		INSERT INTO transactions (user_id, amount, type, status, provider, provider_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING transaction_id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		tx.UserID, tx.Amount, tx.Type, tx.Status, tx.Provider, tx.ProviderTransactionID,
	).Scan(&tx.TransactionID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetByUserID retrieves a player's transactions, newest first.
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT transaction_id, user_id, amount, type, status, provider, provider_transaction_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// CreatePendingDeposit records an unconfirmed deposit tied to a provider
// invoice. The poller confirms it later.
func (r *TransactionRepository) CreatePendingDeposit(ctx context.Context, userID, amount int64, provider, invoiceID string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, amount, type, status, provider, provider_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING transaction_id, user_id, amount, type, status, provider, provider_transaction_id, created_at
	`

	var tx model.Transaction
	err := r.pool.QueryRow(ctx, query,
		userID, amount, model.TxTypeDeposit, model.TxStatusPending, provider, invoiceID,
	).Scan(
		&tx.TransactionID,
		&tx.UserID,
		&tx.Amount,
		&tx.Type,
		&tx.Status,
		&tx.Provider,
		&tx.ProviderTransactionID,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending deposit: %w", err)
	}

	return &tx, nil
}

// PendingDeposits lists unconfirmed deposits for the given provider.
func (r *TransactionRepository) PendingDeposits(ctx context.Context, provider string) ([]*model.Transaction, error) {
	const query = `
		SELECT transaction_id, user_id, amount, type, status, provider, provider_transaction_id, created_at
		FROM transactions
		WHERE type = $1 AND status = $2 AND provider = $3
		ORDER BY transaction_id
	`

	rows, err := r.pool.Query(ctx, query, model.TxTypeDeposit, model.TxStatusPending, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// CompleteDeposit transitions a pending deposit to completed. It returns
// true only for the call that performed the transition, so concurrent or
// repeated polls credit at most once.
func (r *TransactionRepository) CompleteDeposit(ctx context.Context, transactionID int64) (bool, error) {
	const query = `
		UPDATE transactions
		SET status = $2
		WHERE transaction_id = $1 AND status = $3
	`

	tag, err := r.pool.Exec(ctx, query, transactionID, model.TxStatusCompleted, model.TxStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to complete deposit: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

type txRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows txRows) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.TransactionID,
			&tx.UserID,
			&tx.Amount,
			&tx.Type,
			&tx.Status,
			&tx.Provider,
			&tx.ProviderTransactionID,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
