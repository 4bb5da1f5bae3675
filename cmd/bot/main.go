// Package main is the entry point for the GeoHunter Telegram bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"geohunter-bot/internal/bot"
	"geohunter-bot/internal/config"
	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/handler"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/payment"
	"geohunter-bot/internal/pkg/db"
	"geohunter-bot/internal/pkg/lock"
	"geohunter-bot/internal/repository"
	"geohunter-bot/internal/session"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	log.Info().Msg("Running database migrations")
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	gameRepo := repository.NewGameRepository(dbPool.Pool)
	ledgerStore := repository.NewStore(dbPool.Pool)

	// Economy
	sampler := economy.NewSampler()
	modes := economy.DefaultModes()
	jackpot := economy.NewJackpot(cfg.Game.JackpotFloor, cfg.Game.JackpotProbability)
	history := economy.NewWinRateHistory(economy.MinHistorySamples)

	// Ledger
	ledgerSvc := ledger.NewService(ledgerStore, sampler, ledger.Options{
		DailyPlayLimit: cfg.Game.DailyPlayLimit,
		BonusMin:       cfg.Game.BonusMin,
		BonusMax:       cfg.Game.BonusMax,
	})

	// Hunt engine
	engineCfg := session.DefaultConfig()
	engineCfg.PointsPerGame = cfg.Game.PointsPerGame
	engineCfg.GPSToleranceMeters = cfg.Game.GPSToleranceMeters
	engineCfg.FindDistanceMeters = cfg.Game.FindDistanceMeters
	engineCfg.MaxDistanceMeters = cfg.Game.MaxDistanceMeters

	sessionStore := session.NewMemoryStore()
	playerLocks := lock.NewPlayerLock()
	engine := session.NewEngine(
		engineCfg, sessionStore, ledgerSvc, modes, sampler, jackpot, history, gameRepo, playerLocks,
	)

	// Payment provider
	var provider payment.Provider
	providerName := model.ProviderCryptoBot
	if cfg.Payment.DemoMode {
		log.Warn().Msg("Payment demo mode enabled, invoices are auto-paid")
		provider = payment.NewDemo()
		providerName = model.ProviderDemo
	} else {
		provider = payment.NewCryptoBot(cfg.Payment.APIToken, cfg.Payment.Testnet)
	}

	// Handlers
	gameHandler := handler.NewGameHandler(engine, ledgerSvc, modes, cfg.Game.DailyPlayLimit)
	accountHandler := handler.NewAccountHandler(userRepo, gameRepo, ledgerSvc, cfg.Bot.WebAppURL)
	paymentHandler := handler.NewPaymentHandler(provider, providerName, txRepo, cfg.Payment.Asset)
	adminHandler := handler.NewAdminHandler(ledgerSvc, jackpot, sessionStore)

	// Bot
	telegramBot, err := bot.New(&bot.Dependencies{
		Config:         cfg,
		Ledger:         ledgerSvc,
		GameHandler:    gameHandler,
		AccountHandler: accountHandler,
		PaymentHandler: paymentHandler,
		AdminHandler:   adminHandler,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Deposit confirmation poller
	poller := payment.NewPoller(
		provider, providerName, txRepo, ledgerSvc, telegramBot.DepositNotifier(), cfg.Payment.PollInterval,
	)
	poller.Start(ctx)
	defer poller.Stop()

	log.Info().
		Int("modes", len(modes)).
		Int64("jackpot_floor", cfg.Game.JackpotFloor).
		Bool("demo_payments", cfg.Payment.DemoMode).
		Msg("GeoHunter initialized")

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
