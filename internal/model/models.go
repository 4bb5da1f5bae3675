// Package model defines the persistent data models for the GeoHunter bot.
package model

import "time"

// User represents a player account row in the users table.
type User struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Balance   int64     `db:"balance"`
	Language  string    `db:"language"`
	CreatedAt time.Time `db:"created_at"`
}

// Game represents a finished treasure hunt in the games table. Active hunts
// live only in memory; a row is written when the hunt completes or is
// cancelled.
type Game struct {
	GameID    int64     `db:"game_id"`
	UserID    int64     `db:"user_id"`
	Mode      string    `db:"mode"`
	EntryFee  int64     `db:"entry_fee"`
	PrizeWon  int64     `db:"prize_won"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// Transaction represents a balance change record in the transactions table.
type Transaction struct {
	TransactionID         int64     `db:"transaction_id"`
	UserID                int64     `db:"user_id"`
	Amount                int64     `db:"amount"`
	Type                  string    `db:"type"`
	Status                string    `db:"status"`
	Provider              string    `db:"provider"`
	ProviderTransactionID *string   `db:"provider_transaction_id"`
	CreatedAt             time.Time `db:"created_at"`
}

// FoundGeospot represents a discovered hidden point in the found_geospots table.
type FoundGeospot struct {
	GeospotID   int64     `db:"geospot_id"`
	GameID      int64     `db:"game_id"`
	UserID      int64     `db:"user_id"`
	HasPrize    bool      `db:"has_prize"`
	PrizeAmount int64     `db:"prize_amount"`
	CreatedAt   time.Time `db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeDeposit    = "deposit"    // External deposit via payment provider
	TxTypeEntryFee   = "entry_fee"  // Hunt entry fee debit
	TxTypePrize      = "prize"      // Prize payout for a found point
	TxTypeJackpot    = "jackpot"    // Shared jackpot payout
	TxTypeBonus      = "bonus"      // Daily bonus credit
	TxTypeWithdrawal = "withdrawal" // Withdrawal debit
	TxTypeAdmin      = "admin"      // Manual admin adjustment
)

// Transaction statuses.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Payment providers recorded on transactions.
const (
	ProviderCryptoBot = "cryptobot"
	ProviderDemo      = "demo"
	ProviderInternal  = "internal"
)

// Game statuses.
const (
	GameStatusCompleted = "completed"
	GameStatusCancelled = "cancelled"
)
