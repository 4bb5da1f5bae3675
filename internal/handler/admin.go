package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/notify"
	"geohunter-bot/internal/session"
)

// AdminHandler handles admin-only commands. Admin verification happens in
// middleware; handlers here assume the sender is trusted.
type AdminHandler struct {
	ledger  *ledger.Service
	jackpot *economy.Jackpot
	store   session.Store
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledgerSvc *ledger.Service, jackpot *economy.Jackpot, store session.Store) *AdminHandler {
	return &AdminHandler{
		ledger:  ledgerSvc,
		jackpot: jackpot,
		store:   store,
	}
}

// HandleCredit handles the /admin_credit command.
// Format: /admin_credit <user_id> <amount>
func (h *AdminHandler) HandleCredit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseAdminArgs(c)
	if err != nil {
		return c.Reply(err.Error())
	}

	ctx := context.Background()

	if err := h.ledger.Credit(ctx, targetID, amount, model.TxTypeAdmin); err != nil {
		log.Error().Err(err).Int64("target_id", targetID).Msg("Admin credit failed")
		return c.Reply(notify.GenericFailure())
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_credit").
		Msg("Admin operation executed")

	balance, _ := h.ledger.Balance(ctx, targetID)
	return c.Reply(fmt.Sprintf("✅ Credited $%d to %d. Balance: $%d", amount, targetID, balance))
}

// HandleDebit handles the /admin_debit command.
// Format: /admin_debit <user_id> <amount>
func (h *AdminHandler) HandleDebit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseAdminArgs(c)
	if err != nil {
		return c.Reply(err.Error())
	}

	ctx := context.Background()

	if err := h.ledger.Debit(ctx, targetID, amount, model.TxTypeAdmin); err != nil {
		log.Error().Err(err).Int64("target_id", targetID).Msg("Admin debit failed")
		return c.Reply(notify.GenericFailure())
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_debit").
		Msg("Admin operation executed")

	balance, _ := h.ledger.Balance(ctx, targetID)
	return c.Reply(fmt.Sprintf("✅ Debited $%d from %d. Balance: $%d", amount, targetID, balance))
}

// HandleStatus handles the /admin_status command: jackpot pool and active
// session count.
func (h *AdminHandler) HandleStatus(c tele.Context) error {
	return c.Reply(fmt.Sprintf(
		"🎛 Status\n💰 Jackpot pool: $%d\n🗺 Active hunts: %d",
		h.jackpot.Pool(), h.store.Len(),
	))
}

func parseAdminArgs(c tele.Context) (targetID, amount int64, err error) {
	args := c.Args()
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("usage: %s <user_id> <amount>", commandName(c))
	}

	targetID, err = strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user id: %s", args[0])
	}

	amount, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, fmt.Errorf("invalid amount: %s", args[1])
	}

	return targetID, amount, nil
}

func commandName(c tele.Context) string {
	if msg := c.Message(); msg != nil && len(msg.Text) > 0 {
		for i, r := range msg.Text {
			if r == ' ' {
				return msg.Text[:i]
			}
		}
		return msg.Text
	}
	return "/admin_credit"
}
