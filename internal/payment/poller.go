package payment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
)

// PendingStore lists pending deposit transactions and transitions them to
// completed. CompleteDeposit must be atomic: it returns true only for the
// single call that performed the pending->completed transition, which is
// what keeps crediting idempotent under repeated polls.
type PendingStore interface {
	PendingDeposits(ctx context.Context, provider string) ([]*model.Transaction, error)
	CompleteDeposit(ctx context.Context, transactionID int64) (bool, error)
}

// Notifier delivers the one-time deposit confirmation to the player.
type Notifier func(playerID, amount int64)

// Poller periodically checks pending invoices against the provider and
// credits paid ones. It runs independently of the location-update path and
// never blocks it.
type Poller struct {
	provider     Provider
	providerName string
	store        PendingStore
	ledger       *ledger.Service
	notify       Notifier
	interval     time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller over the given collaborators. providerName
// selects which pending rows this poller owns.
func NewPoller(provider Provider, providerName string, store PendingStore, ledgerSvc *ledger.Service, notify Notifier, interval time.Duration) *Poller {
	if providerName == "" {
		providerName = model.ProviderCryptoBot
	}
	if interval <= 0 {
		interval = 300 * time.Second
	}
	if notify == nil {
		notify = func(int64, int64) {}
	}
	return &Poller{
		provider:     provider,
		providerName: providerName,
		store:        store,
		ledger:       ledgerSvc,
		notify:       notify,
		interval:     interval,
	}
}

// Start launches the polling loop in a background goroutine.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", p.interval).Msg("Payment poller started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.CheckPending(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
		log.Info().Msg("Payment poller stopped")
	}
}

// CheckPending runs one polling pass. A failure on one transaction is
// logged and never blocks the rest.
func (p *Poller) CheckPending(ctx context.Context) {
	pending, err := p.store.PendingDeposits(ctx, p.providerName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pending deposits")
		return
	}

	for _, tx := range pending {
		if tx.ProviderTransactionID == nil {
			continue
		}

		invoice, err := p.provider.GetInvoice(ctx, *tx.ProviderTransactionID)
		if err != nil {
			log.Warn().Err(err).
				Int64("transaction_id", tx.TransactionID).
				Msg("Invoice check failed, will retry next interval")
			continue
		}
		if invoice.Status != StatusPaid {
			continue
		}

		// Mark completed first; only the winning transition credits,
		// so a repeated poll can never double-credit.
		transitioned, err := p.store.CompleteDeposit(ctx, tx.TransactionID)
		if err != nil {
			log.Error().Err(err).
				Int64("transaction_id", tx.TransactionID).
				Msg("Failed to complete deposit")
			continue
		}
		if !transitioned {
			continue
		}

		if err := p.ledger.Credit(ctx, tx.UserID, tx.Amount, model.TxTypeDeposit); err != nil {
			log.Error().Err(err).
				Int64("user_id", tx.UserID).
				Int64("amount", tx.Amount).
				Msg("Failed to credit confirmed deposit")
			continue
		}

		log.Info().
			Int64("user_id", tx.UserID).
			Int64("amount", tx.Amount).
			Msg("Deposit confirmed")
		p.notify(tx.UserID, tx.Amount)
	}
}
