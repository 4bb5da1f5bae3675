package handler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/model"
	"geohunter-bot/internal/notify"
	"geohunter-bot/internal/payment"
)

// DefaultDepositAmount is used when /deposit is called without an amount.
const DefaultDepositAmount = 100

// DepositStore records unconfirmed deposits for the poller to confirm.
type DepositStore interface {
	CreatePendingDeposit(ctx context.Context, userID, amount int64, provider, invoiceID string) (*model.Transaction, error)
}

// PaymentHandler handles the deposit flow: invoice creation and the pending
// transaction it is tracked by.
type PaymentHandler struct {
	provider     payment.Provider
	providerName string
	store        DepositStore
	asset        string
}

// NewPaymentHandler creates a new PaymentHandler. providerName is stored on
// each pending transaction and must match the confirmation poller's.
func NewPaymentHandler(provider payment.Provider, providerName string, store DepositStore, asset string) *PaymentHandler {
	if providerName == "" {
		providerName = model.ProviderCryptoBot
	}
	return &PaymentHandler{
		provider:     provider,
		providerName: providerName,
		store:        store,
		asset:        asset,
	}
}

// HandleDeposit handles the /deposit command.
// Format: /deposit [amount]
func (h *PaymentHandler) HandleDeposit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	amount := int64(DefaultDepositAmount)
	if args := c.Args(); len(args) > 0 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || parsed <= 0 {
			return c.Reply("💳 Usage: /deposit <amount>, e.g. /deposit 100")
		}
		amount = parsed
	}

	ctx := context.Background()

	invoice, err := h.provider.CreateInvoice(ctx, sender.ID, amount, h.asset)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Int64("amount", amount).
			Msg("Failed to create invoice")
		return c.Reply(notify.GenericFailure())
	}

	_, err = h.store.CreatePendingDeposit(ctx, sender.ID, amount, h.providerName, invoice.InvoiceID)
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Str("invoice_id", invoice.InvoiceID).
			Msg("Failed to record pending deposit")
		return c.Reply(notify.GenericFailure())
	}

	log.Info().
		Int64("user_id", sender.ID).
		Int64("amount", amount).
		Str("invoice_id", invoice.InvoiceID).
		Msg("Deposit invoice created")

	return c.Reply(notify.InvoiceCreated(amount, invoice.PayURL))
}
