// Package bot provides Telegram bot initialization, middleware and handler
// registration.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/config"
	"geohunter-bot/internal/handler"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/notify"
	"geohunter-bot/internal/payment"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	ledger *ledger.Service

	gameHandler    *handler.GameHandler
	accountHandler *handler.AccountHandler
	paymentHandler *handler.PaymentHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config         *config.Config
	Ledger         *ledger.Service
	GameHandler    *handler.GameHandler
	AccountHandler *handler.AccountHandler
	PaymentHandler *handler.PaymentHandler
	AdminHandler   *handler.AdminHandler
}

// New creates a Bot with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		ledger:         deps.Ledger,
		gameHandler:    deps.GameHandler,
		accountHandler: deps.AccountHandler,
		paymentHandler: deps.PaymentHandler,
		adminHandler:   deps.AdminHandler,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	// Account
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/bonus", b.accountHandler.HandleBonus)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)
	b.bot.Handle("/history", b.accountHandler.HandleHistory)

	// Hunt lifecycle
	b.bot.Handle("/hunt", b.gameHandler.HandleHunt)
	b.bot.Handle("/cancel", b.gameHandler.HandleCancel)
	b.bot.Handle(tele.OnLocation, b.gameHandler.HandleLocation)
	// Live location updates arrive as edits to the original share.
	b.bot.Handle(tele.OnEdited, b.handleEdited)

	// Payments
	b.bot.Handle("/deposit", b.paymentHandler.HandleDeposit)

	// Admin commands
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_credit", b.adminHandler.HandleCredit)
	adminGroup.Handle("/admin_debit", b.adminHandler.HandleDebit)
	adminGroup.Handle("/admin_status", b.adminHandler.HandleStatus)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) handleEdited(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil {
		return nil
	}
	return b.gameHandler.HandleLocationUpdate(c)
}

// handleCallback routes inline button presses by data prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot prefixes callback data with \f.
	data := strings.TrimPrefix(callback.Data, "\f")

	switch {
	case strings.HasPrefix(data, notify.CallbackModePrefix), data == notify.CallbackCancelHunt:
		return b.gameHandler.HandleCallback(c, data)
	case data == notify.CallbackDeposit:
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			log.Warn().Err(err).Msg("Failed to answer callback")
		}
		return b.paymentHandler.HandleDeposit(c)
	case data == notify.CallbackBalance:
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			log.Warn().Err(err).Msg("Failed to answer callback")
		}
		return b.accountHandler.HandleBalance(c)
	default:
		log.Debug().Str("data", data).Msg("Unhandled callback")
		return c.Respond(&tele.CallbackResponse{})
	}
}

// DepositNotifier returns the callback the payment poller uses to deliver
// the exactly-once deposit confirmation.
func (b *Bot) DepositNotifier() payment.Notifier {
	return func(playerID, amount int64) {
		balance, err := b.ledger.Balance(context.Background(), playerID)
		if err != nil {
			log.Warn().Err(err).Int64("user_id", playerID).Msg("Failed to get balance for notification")
		}

		_, err = b.bot.Send(tele.ChatID(playerID), notify.DepositConfirmed(amount, balance))
		if err != nil {
			log.Warn().Err(err).Int64("user_id", playerID).Msg("Failed to send deposit confirmation")
		}
	}
}

// Start starts long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot")
	b.bot.Stop()
}
