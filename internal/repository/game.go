package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"geohunter-bot/internal/model"
	"geohunter-bot/internal/session"
)

// GameRepository persists finished hunts. Active hunts never touch the
// database; a row appears only when the engine hands over a completed or
// cancelled session.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// SaveResult writes the game row and its found geospots in one transaction.
// Implements the engine's result recorder.
func (r *GameRepository) SaveResult(ctx context.Context, s *session.Session, status string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const gameQuery = `
		INSERT INTO games (user_id, mode, entry_fee, prize_won, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING game_id
	`

	var gameID int64
	err = tx.QueryRow(ctx, gameQuery,
		s.PlayerID, s.Mode.ID, s.Mode.EntryFee, s.TotalPayout, status, s.CreatedAt,
	).Scan(&gameID)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	const spotQuery = `
		INSERT INTO found_geospots (game_id, user_id, has_prize, prize_amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	for _, idx := range s.FoundOrder {
		point := s.Points[idx]
		if _, err := tx.Exec(ctx, spotQuery, gameID, s.PlayerID, point.HasPrize, point.PrizeAmount); err != nil {
			return fmt.Errorf("failed to insert found geospot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit game result: %w", err)
	}

	return nil
}

// GetByUserID retrieves a player's finished games, newest first.
func (r *GameRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Game, error) {
	const query = `
		SELECT game_id, user_id, mode, entry_fee, prize_won, status, created_at
		FROM games
		WHERE user_id = $1
		ORDER BY game_id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		var game model.Game
		err := rows.Scan(
			&game.GameID,
			&game.UserID,
			&game.Mode,
			&game.EntryFee,
			&game.PrizeWon,
			&game.Status,
			&game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// Stats aggregates a player's finished hunts for the stats command.
func (r *GameRepository) Stats(ctx context.Context, userID int64) (games int, spotsFound int, totalWon int64, err error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM games WHERE user_id = $1),
			(SELECT COUNT(*) FROM found_geospots WHERE user_id = $1),
			(SELECT COALESCE(SUM(prize_won), 0) FROM games WHERE user_id = $1)
	`

	if err = r.pool.QueryRow(ctx, query, userID).Scan(&games, &spotsFound, &totalWon); err != nil {
		err = fmt.Errorf("failed to get game stats: %w", err)
	}
	return
}
