// Tests use testcontainers-go to spin up a PostgreSQL container and are
// skipped when Docker is unavailable.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/geo"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/session"
)

func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupTestDB creates a PostgreSQL container, applies the schema and
// returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func TestUserRepository_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Upsert(ctx, 12345, "hunter", "Jo", "Doe", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.UserID)
	assert.Equal(t, "hunter", user.Username)
	assert.Zero(t, user.Balance)
	assert.False(t, user.CreatedAt.IsZero())

	// Profile refresh must not touch the balance.
	_, err = repo.AdjustBalance(ctx, 12345, 300)
	require.NoError(t, err)

	user, err = repo.Upsert(ctx, 12345, "renamed", "Jo", "Doe", "ru")
	require.NoError(t, err)
	assert.Equal(t, "renamed", user.Username)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, int64(300), user.Balance)
}

func TestUserRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 12345, "hunter", "", "", "en")
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.UserID)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_AdjustBalance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 12345, "hunter", "", "", "en")
	require.NoError(t, err)

	balance, err := repo.AdjustBalance(ctx, 12345, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	balance, err = repo.AdjustBalance(ctx, 12345, -300)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	// Overdraw is rejected and leaves the balance unchanged.
	_, err = repo.AdjustBalance(ctx, 12345, -201)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	balance, err = repo.Balance(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	_, err = repo.AdjustBalance(ctx, 99999, 100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_BalanceMissingUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)

	balance, err := repo.Balance(context.Background(), 424242)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestTransactionRepository_AppendAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Upsert(ctx, 12345, "hunter", "", "", "en")
	require.NoError(t, err)

	for _, amount := range []int64{100, -10, 250} {
		err := txRepo.Append(ctx, &model.Transaction{
			UserID:   12345,
			Amount:   amount,
			Type:     model.TxTypePrize,
			Status:   model.TxStatusCompleted,
			Provider: model.ProviderInternal,
		})
		require.NoError(t, err)
	}

	txs, err := txRepo.GetByUserID(ctx, 12345, 10)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, int64(250), txs[0].Amount) // newest first
}

func TestTransactionRepository_DepositLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Upsert(ctx, 12345, "hunter", "", "", "en")
	require.NoError(t, err)

	tx, err := txRepo.CreatePendingDeposit(ctx, 12345, 500, model.ProviderCryptoBot, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusPending, tx.Status)
	require.NotNil(t, tx.ProviderTransactionID)
	assert.Equal(t, "inv-1", *tx.ProviderTransactionID)

	pending, err := txRepo.PendingDeposits(ctx, model.ProviderCryptoBot)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	transitioned, err := txRepo.CompleteDeposit(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.True(t, transitioned)

	// A second completion attempt must report no transition.
	transitioned, err = txRepo.CompleteDeposit(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.False(t, transitioned)

	pending, err = txRepo.PendingDeposits(ctx, model.ProviderCryptoBot)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGameRepository_SaveResult(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	gameRepo := NewGameRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Upsert(ctx, 12345, "hunter", "", "", "en")
	require.NoError(t, err)

	mode, err := economy.NewMode("standard", "Standard", 10, 5, 100, 0.3, nil)
	require.NoError(t, err)

	s := &session.Session{
		PlayerID: 12345,
		Mode:     mode,
		Center:   geo.Point{Lat: 55.75, Lon: 37.61},
		Points: []session.HiddenPoint{
			{HasPrize: true, PrizeAmount: 40, Found: true},
			{Found: true},
			{HasPrize: true, PrizeAmount: 25, Found: true},
		},
		FoundOrder:  []int{1, 0, 2},
		TotalPayout: 65,
		CreatedAt:   time.Now().Add(-10 * time.Minute),
	}

	require.NoError(t, gameRepo.SaveResult(ctx, s, model.GameStatusCompleted))

	games, err := gameRepo.GetByUserID(ctx, 12345, 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "standard", games[0].Mode)
	assert.Equal(t, int64(10), games[0].EntryFee)
	assert.Equal(t, int64(65), games[0].PrizeWon)
	assert.Equal(t, model.GameStatusCompleted, games[0].Status)

	gamesCount, spotsFound, totalWon, err := gameRepo.Stats(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, 1, gamesCount)
	assert.Equal(t, 3, spotsFound)
	assert.Equal(t, int64(65), totalWon)
}

func TestStore_LedgerRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	store := NewStore(pool)
	ctx := context.Background()

	_, err := userRepo.Upsert(ctx, 7, "hunter", "", "", "en")
	require.NoError(t, err)

	sampler := economy.NewSamplerWithDraw(func() float64 { return 0.5 })
	svc := ledger.NewService(store, sampler, ledger.Options{})

	require.NoError(t, svc.Credit(ctx, 7, 100, model.TxTypeDeposit))
	require.NoError(t, svc.Debit(ctx, 7, 30, model.TxTypeEntryFee))

	balance, err := svc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	err = svc.Debit(ctx, 7, 71, model.TxTypeEntryFee)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	history, err := svc.History(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-30), history[0].Amount)
	assert.Equal(t, int64(100), history[1].Amount)
}
