// Package notify renders engine events and error conditions into user-facing
// messages and inline keyboards. Pure functions of engine state: no side
// effects, safe to re-render.
package notify

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/economy"
)

// Callback data prefixes routed by the bot.
const (
	CallbackModePrefix = "hunt_mode:" // hunt_mode:standard
	CallbackCancelHunt = "hunt_cancel"
	CallbackDeposit    = "deposit"
	CallbackBalance    = "balance"
)

// BuildModePanel creates the mode-selection keyboard shown by /hunt.
func BuildModePanel(modes []*economy.Mode) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	for _, mode := range modes {
		btn := markup.Data(
			fmt.Sprintf("%s — entry %d💰", mode.Name, mode.EntryFee),
			CallbackModePrefix+mode.ID,
		)
		rows = append(rows, markup.Row(btn))
	}
	rows = append(rows, markup.Row(markup.Data("💳 Deposit", CallbackDeposit)))

	markup.Inline(rows...)
	return markup
}

// BuildHuntPanel creates the in-hunt action keyboard.
func BuildHuntPanel() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("❌ Cancel hunt", CallbackCancelHunt),
			markup.Data("💰 Balance", CallbackBalance),
		),
	)
	return markup
}

// BuildLocationRequest creates a reply keyboard asking for a location share.
func BuildLocationRequest() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Location("📍 Share my location")))
	return markup
}

// BuildWebAppButton creates the game-interface launch button shown by /start.
func BuildWebAppButton(webAppURL string, userID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	btn := tele.Btn{
		Text:   "🎮 Launch GeoHunter",
		WebApp: &tele.WebApp{URL: fmt.Sprintf("%s?user_id=%d", webAppURL, userID)},
	}
	markup.Inline(markup.Row(btn))
	return markup
}
