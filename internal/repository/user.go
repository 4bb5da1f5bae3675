// Package repository implements the relational data access layer over the
// users, games, transactions and found_geospots tables.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
)

// ErrUserNotFound is returned when a player row does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles player account persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert creates the player row on first contact and refreshes the profile
// fields on subsequent calls. The balance is never touched here.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username, firstName, lastName, language string) (*model.User, error) {
	const query = `
		INSERT INTO users (user_id, username, first_name, last_name, balance, language, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    language = EXCLUDED.language
		RETURNING user_id, username, first_name, last_name, balance, language, created_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, userID, username, firstName, lastName, language).Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Balance,
		&user.Language,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a player by Telegram user id.
// Returns ErrUserNotFound if the row does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	const query = `
		SELECT user_id, username, first_name, last_name, balance, language, created_at
		FROM users
		WHERE user_id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Balance,
		&user.Language,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Balance returns the player's current balance, zero if no row exists yet.
func (r *UserRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT balance FROM users WHERE user_id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// AdjustBalance atomically applies a signed delta. The WHERE clause rejects
// any update that would drive the balance negative, so concurrent debits
// cannot overdraw the account.
func (r *UserRepository) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	const query = `
		UPDATE users
		SET balance = balance + $2
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, existsErr := r.Exists(ctx, userID)
			if existsErr != nil {
				return 0, existsErr
			}
			if exists {
				return 0, ledger.ErrInsufficientBalance
			}
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}

	return balance, nil
}

// Exists checks if a player row exists.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}
