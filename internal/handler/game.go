// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/geo"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/notify"
	"geohunter-bot/internal/session"
)

// GameHandler drives the hunt lifecycle: mode selection, session start from
// the first shared location, live location updates and cancellation.
type GameHandler struct {
	engine     *session.Engine
	ledger     *ledger.Service
	modes      economy.Modes
	dailyLimit int

	// pendingMode maps players who picked a mode but have not shared
	// their starting location yet.
	mu          sync.Mutex
	pendingMode map[int64]string
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(engine *session.Engine, ledgerSvc *ledger.Service, modes economy.Modes, dailyLimit int) *GameHandler {
	return &GameHandler{
		engine:      engine,
		ledger:      ledgerSvc,
		modes:       modes,
		dailyLimit:  dailyLimit,
		pendingMode: make(map[int64]string),
	}
}

// HandleHunt handles the /hunt command: shows the mode-selection panel, or
// the in-hunt panel if a session is already running.
func (h *GameHandler) HandleHunt(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, active := h.engine.ActiveSession(sender.ID); active {
		return c.Reply(notify.SessionExists(), notify.BuildHuntPanel())
	}

	return c.Reply("🗺 Choose your hunt mode:", notify.BuildModePanel(h.sortedModes()))
}

func (h *GameHandler) sortedModes() []*economy.Mode {
	modes := make([]*economy.Mode, 0, len(h.modes))
	for _, m := range h.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].EntryFee < modes[j].EntryFee })
	return modes
}

// HandleModeCallback handles a mode-selection button press. The session does
// not start yet: the player's next shared location becomes the hunt center.
func (h *GameHandler) HandleModeCallback(c tele.Context, modeID string) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	mode, err := h.modes.Get(modeID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown mode"})
	}

	if _, active := h.engine.ActiveSession(sender.ID); active {
		return c.Respond(&tele.CallbackResponse{Text: "Hunt already in progress"})
	}

	h.mu.Lock()
	h.pendingMode[sender.ID] = mode.ID
	h.mu.Unlock()

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		log.Warn().Err(err).Msg("Failed to answer callback")
	}

	return c.Send(
		"📍 Share your location to start the "+mode.Name+" (live location works best).",
		notify.BuildLocationRequest(),
	)
}

// HandleLocation handles a shared location. A pending mode selection turns
// it into the hunt center; otherwise it is a position report against the
// active session.
func (h *GameHandler) HandleLocation(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil || msg.Location == nil {
		return nil
	}

	coord := geo.Point{
		Lat: float64(msg.Location.Lat),
		Lon: float64(msg.Location.Lng),
	}

	h.mu.Lock()
	modeID, starting := h.pendingMode[sender.ID]
	if starting {
		delete(h.pendingMode, sender.ID)
	}
	h.mu.Unlock()

	ctx := context.Background()

	if starting {
		return h.startHunt(ctx, c, sender.ID, modeID, coord)
	}

	// Live location shares keep arriving as edits to the original
	// message; a plain share ends tracking when the period elapses.
	if msg.Location.LivePeriod > 0 {
		h.engine.SetLiveTracking(sender.ID, true)
	}

	return h.reportLocation(ctx, c, sender.ID, coord)
}

// HandleLocationUpdate handles edited messages carrying live location
// updates.
func (h *GameHandler) HandleLocationUpdate(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil || msg.Location == nil {
		return nil
	}

	coord := geo.Point{
		Lat: float64(msg.Location.Lat),
		Lon: float64(msg.Location.Lng),
	}

	return h.reportLocation(context.Background(), c, sender.ID, coord)
}

func (h *GameHandler) startHunt(ctx context.Context, c tele.Context, playerID int64, modeID string, center geo.Point) error {
	chatID := playerID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}

	s, err := h.engine.StartSession(ctx, playerID, chatID, modeID, center)
	if err != nil {
		return h.replyStartError(ctx, c, playerID, modeID, err)
	}

	return c.Send(
		notify.HuntStarted(s.Mode, len(s.Points)),
		notify.BuildHuntPanel(),
	)
}

func (h *GameHandler) replyStartError(ctx context.Context, c tele.Context, playerID int64, modeID string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		balance, _ := h.ledger.Balance(ctx, playerID)
		entryFee := int64(0)
		if mode, modeErr := h.modes.Get(modeID); modeErr == nil {
			entryFee = mode.EntryFee
		}
		return c.Send(notify.InsufficientBalance(balance, entryFee))
	case errors.Is(err, ledger.ErrDailyLimitExceeded):
		return c.Send(notify.DailyLimitExceeded(h.dailyLimit))
	case errors.Is(err, session.ErrSessionExists):
		return c.Send(notify.SessionExists())
	case errors.Is(err, geo.ErrInvalidLocation):
		return c.Send(notify.InvalidLocation())
	default:
		log.Error().Err(err).Int64("user_id", playerID).Msg("Failed to start hunt")
		return c.Send(notify.GenericFailure())
	}
}

func (h *GameHandler) reportLocation(ctx context.Context, c tele.Context, playerID int64, coord geo.Point) error {
	events, err := h.engine.ReportLocation(ctx, playerID, coord)
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			// Stray location shares outside a hunt are ignored
			// rather than nagged about.
			return nil
		}
		if errors.Is(err, geo.ErrInvalidLocation) {
			return c.Send(notify.InvalidLocation())
		}
		log.Error().Err(err).Int64("user_id", playerID).Msg("Failed to process location")
		return c.Send(notify.GenericFailure())
	}

	for _, ev := range events {
		if text := notify.Event(ev); text != "" {
			if err := c.Send(text); err != nil {
				log.Warn().Err(err).Int64("user_id", playerID).Msg("Failed to send event")
			}
		}
	}
	return nil
}

// HandleCancel handles the /cancel command and the cancel button.
func (h *GameHandler) HandleCancel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	h.mu.Lock()
	delete(h.pendingMode, sender.ID)
	h.mu.Unlock()

	summary, err := h.engine.CancelSession(context.Background(), sender.ID)
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			return c.Send(notify.NoActiveSession())
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to cancel hunt")
		return c.Send(notify.GenericFailure())
	}

	return c.Send(notify.Cancelled(summary))
}

// HandleCallback routes hunt-related callback presses.
func (h *GameHandler) HandleCallback(c tele.Context, data string) error {
	switch {
	case strings.HasPrefix(data, notify.CallbackModePrefix):
		return h.HandleModeCallback(c, strings.TrimPrefix(data, notify.CallbackModePrefix))
	case data == notify.CallbackCancelHunt:
		return h.HandleCancel(c)
	default:
		return nil
	}
}
