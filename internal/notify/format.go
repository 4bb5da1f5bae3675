package notify

import (
	"fmt"
	"strings"
	"time"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/session"
)

var achievementTitles = map[string]string{
	ledger.AchFirstFind:    "🏅 First Find",
	ledger.AchFirstJackpot: "🎰 Jackpot Hunter",
	ledger.AchTenFinds:     "🔟 Treasure Veteran",
	ledger.AchHighRoller:   "💎 High Roller",
}

// Welcome renders the /start greeting.
func Welcome(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "hunter"
	}
	return fmt.Sprintf(
		"🌟 Welcome to GeoHunter, %s! 🌟\n\n"+
			"I'll help you find hidden treasures around you!\n\n"+
			"Pick a hunt mode with /hunt, then share your live location to start searching.",
		name,
	)
}

// HuntStarted renders the session-start confirmation.
func HuntStarted(mode *economy.Mode, points int) string {
	return fmt.Sprintf(
		"🏴‍☠️ %s started! %d treasures are hidden nearby.\n"+
			"Keep your live location on and follow the hints. Good luck!",
		mode.Name, points,
	)
}

// Event renders a single engine event.
func Event(ev session.Event) string {
	switch ev.Kind {
	case session.EventProgress:
		return Progress(ev.PointIndex, ev.Progress)
	case session.EventFound:
		return Found(ev)
	case session.EventCompleted:
		return Completed(ev.Summary)
	default:
		return ""
	}
}

// Progress renders a proximity progress update for one point.
func Progress(pointIndex, percent int) string {
	bar := progressBar(percent)
	switch {
	case percent >= 90:
		return fmt.Sprintf("🔥 Burning hot! Treasure #%d: %s %d%%", pointIndex+1, bar, percent)
	case percent >= 60:
		return fmt.Sprintf("🌡 Getting warm… Treasure #%d: %s %d%%", pointIndex+1, bar, percent)
	default:
		return fmt.Sprintf("🧭 Treasure #%d in range: %s %d%%", pointIndex+1, bar, percent)
	}
}

func progressBar(percent int) string {
	filled := percent / 10
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

// Found renders a discovery, including jackpot wins and any achievements
// unlocked by it.
func Found(ev session.Event) string {
	var b strings.Builder

	switch {
	case ev.Jackpot:
		fmt.Fprintf(&b, "🎰💥 JACKPOT!!! You hit the shared pool and won $%d!", ev.Prize)
	case ev.Prize > 0:
		fmt.Fprintf(&b, "🎉 Treasure #%d found! You won $%d!", ev.PointIndex+1, ev.Prize)
	default:
		fmt.Fprintf(&b, "📦 Treasure #%d found… but the chest was empty. Keep hunting!", ev.PointIndex+1)
	}

	for _, id := range ev.Achievements {
		if title, ok := achievementTitles[id]; ok {
			fmt.Fprintf(&b, "\n🏆 Achievement unlocked: %s", title)
		}
	}

	return b.String()
}

// Completed renders the end-of-hunt summary.
func Completed(s *session.Summary) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf(
		"🏁 Hunt complete!\n"+
			"━━━━━━━━━━━━━━━\n"+
			"🗺 Mode: %s\n"+
			"📍 Found: %d/%d\n"+
			"💰 Total won: $%d\n"+
			"⏱ Time: %s\n"+
			"━━━━━━━━━━━━━━━\n"+
			"Play again with /hunt!",
		s.Mode.Name, s.Found, s.Total, s.TotalPayout, formatElapsed(s.Elapsed),
	)
}

// Cancelled renders the summary after an explicit cancellation.
func Cancelled(s *session.Summary) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf(
		"🛑 Hunt cancelled. You found %d/%d treasures and won $%d.",
		s.Found, s.Total, s.TotalPayout,
	)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// Error conditions.

// InsufficientBalance renders the failed-entry message.
func InsufficientBalance(balance, entryFee int64) string {
	return fmt.Sprintf(
		"❌ Not enough balance: entry costs $%d, you have $%d.\nTop up with /deposit.",
		entryFee, balance,
	)
}

// DailyLimitExceeded renders the daily-cap message.
func DailyLimitExceeded(limit int) string {
	return fmt.Sprintf("⏰ Daily limit reached: %d hunts per day. Come back tomorrow!", limit)
}

// NoActiveSession prompts the player to start a hunt first.
func NoActiveSession() string {
	return "🤷 No active hunt. Start one with /hunt."
}

// SessionExists reminds the player a hunt is already running.
func SessionExists() string {
	return "⚠️ You already have a hunt in progress. Finish it or /cancel first."
}

// InvalidLocation reports a malformed coordinate.
func InvalidLocation() string {
	return "❌ That location looks invalid. Please share your position again."
}

// GenericFailure is the catch-all user-facing error.
func GenericFailure() string {
	return "❌ Sorry, something went wrong. Please try again."
}

// Balance renders the balance line with level and XP.
func Balance(balance int64, level int, xp int64) string {
	return fmt.Sprintf("💰 Balance: $%d\n⭐ Level %d (%d XP)", balance, level, xp)
}

// BonusGranted renders a successful daily bonus claim.
func BonusGranted(amount, balance int64) string {
	return fmt.Sprintf("🎁 Daily bonus: +$%d! Balance: $%d", amount, balance)
}

// BonusAlreadyClaimed renders the repeat-claim message.
func BonusAlreadyClaimed() string {
	return "🎁 You already claimed today's bonus. Come back tomorrow!"
}

// History renders the recent transaction log.
func History(txs []*model.Transaction) string {
	if len(txs) == 0 {
		return "📜 No transactions yet."
	}

	var b strings.Builder
	b.WriteString("📜 Recent transactions\n━━━━━━━━━━━━━━━\n")
	for _, tx := range txs {
		sign := "+"
		if tx.Amount < 0 {
			sign = ""
		}
		fmt.Fprintf(&b, "%s %s%d (%s)\n", txEmoji(tx.Type), sign, tx.Amount, tx.Type)
	}
	return strings.TrimRight(b.String(), "\n")
}

func txEmoji(txType string) string {
	switch txType {
	case model.TxTypeDeposit:
		return "💳"
	case model.TxTypePrize, model.TxTypeJackpot:
		return "🎉"
	case model.TxTypeBonus:
		return "🎁"
	case model.TxTypeEntryFee, model.TxTypeWithdrawal:
		return "💸"
	default:
		return "🔸"
	}
}

// InvoiceCreated renders the pay-url message for a pending deposit.
func InvoiceCreated(amount int64, payURL string) string {
	return fmt.Sprintf("💳 Please complete your payment of $%d:\n%s", amount, payURL)
}

// DepositConfirmed renders the exactly-once payment confirmation.
func DepositConfirmed(amount, balance int64) string {
	return fmt.Sprintf("✅ Deposit of $%d confirmed! Balance: $%d", amount, balance)
}
