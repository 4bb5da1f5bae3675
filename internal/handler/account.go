package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/notify"
)

// UserStore persists player profiles.
type UserStore interface {
	Upsert(ctx context.Context, userID int64, username, firstName, lastName, language string) (*model.User, error)
}

// StatsStore aggregates a player's finished hunts.
type StatsStore interface {
	Stats(ctx context.Context, userID int64) (games int, spotsFound int, totalWon int64, err error)
}

// AccountHandler handles profile and balance commands.
type AccountHandler struct {
	users     UserStore
	stats     StatsStore
	ledger    *ledger.Service
	webAppURL string
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(users UserStore, stats StatsStore, ledgerSvc *ledger.Service, webAppURL string) *AccountHandler {
	return &AccountHandler{
		users:     users,
		stats:     stats,
		ledger:    ledgerSvc,
		webAppURL: webAppURL,
	}
}

// HandleStart handles the /start command: registers the player and shows
// the welcome message with the web-app launch button.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	language := sender.LanguageCode
	if language == "" {
		language = "en"
	}

	_, err := h.users.Upsert(
		context.Background(),
		sender.ID, sender.Username, sender.FirstName, sender.LastName, language,
	)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to register user")
		return c.Reply(notify.GenericFailure())
	}

	log.Info().
		Int64("user_id", sender.ID).
		Str("username", sender.Username).
		Msg("User started bot")

	return c.Reply(
		notify.Welcome(sender.FirstName),
		notify.BuildWebAppButton(h.webAppURL, sender.ID),
	)
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	balance, err := h.ledger.Balance(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get balance")
		return c.Reply(notify.GenericFailure())
	}

	return c.Reply(notify.Balance(balance, h.ledger.Level(sender.ID), h.ledger.XP(sender.ID)))
}

// HandleBonus handles the /bonus command: one random credit per calendar
// date.
func (h *AccountHandler) HandleBonus(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := context.Background()

	amount, err := h.ledger.GrantDailyBonus(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrBonusClaimed) {
			return c.Reply(notify.BonusAlreadyClaimed())
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to grant bonus")
		return c.Reply(notify.GenericFailure())
	}

	balance, _ := h.ledger.Balance(ctx, sender.ID)
	return c.Reply(notify.BonusGranted(amount, balance))
}

// HandleStats handles the /stats command.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	games, spotsFound, totalWon, err := h.stats.Stats(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get stats")
		return c.Reply(notify.GenericFailure())
	}

	var b strings.Builder
	b.WriteString("📊 Your hunting record\n━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "🗺 Hunts played: %d\n", games)
	fmt.Fprintf(&b, "📍 Treasures found: %d\n", spotsFound)
	fmt.Fprintf(&b, "💰 Total won: $%d\n", totalWon)
	fmt.Fprintf(&b, "⭐ Level %d (%d XP)", h.ledger.Level(sender.ID), h.ledger.XP(sender.ID))

	if achievements := h.ledger.Achievements(sender.ID); len(achievements) > 0 {
		fmt.Fprintf(&b, "\n🏆 Achievements: %d", len(achievements))
	}

	return c.Reply(b.String())
}

// HandleHistory handles the /history command.
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	txs, err := h.ledger.History(context.Background(), sender.ID, 10)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to get history")
		return c.Reply(notify.GenericFailure())
	}

	return c.Reply(notify.History(txs))
}
