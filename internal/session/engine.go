package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/geo"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
	"geohunter-bot/internal/pkg/lock"
)

// Default engine parameters.
const (
	DefaultGPSTolerance   = 20.0  // meters shaved off the raw distance
	DefaultFindDistance   = 10.0  // effective meters that count as a find
	DefaultMaxDistance    = 100.0 // search radius / progress horizon
	DefaultPointsPerGame  = 5
	DefaultProgressStep   = 10 // minimum percentage-point change to re-notify
	DefaultXPPerFind      = 10
	DefaultXPPerComplete  = 50
	DefaultJackpotSharePc = 10 // percent of the entry fee fed to the pool
)

// Config holds the engine tuning parameters.
type Config struct {
	GPSToleranceMeters float64
	FindDistanceMeters float64
	MaxDistanceMeters  float64
	PointsPerGame      int
	ProgressStep       int
	XPPerFind          int64
	XPPerCompletion    int64
	JackpotSharePct    int64
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		GPSToleranceMeters: DefaultGPSTolerance,
		FindDistanceMeters: DefaultFindDistance,
		MaxDistanceMeters:  DefaultMaxDistance,
		PointsPerGame:      DefaultPointsPerGame,
		ProgressStep:       DefaultProgressStep,
		XPPerFind:          DefaultXPPerFind,
		XPPerCompletion:    DefaultXPPerComplete,
		JackpotSharePct:    DefaultJackpotSharePc,
	}
}

// EventKind distinguishes engine event types.
type EventKind int

// Engine event kinds.
const (
	EventProgress EventKind = iota
	EventFound
	EventCompleted
)

// Event is one engine outcome of a location report, consumed by the
// notification formatter.
type Event struct {
	Kind         EventKind
	PointIndex   int
	Progress     int
	Prize        int64
	Jackpot      bool
	Achievements []string
	Level        int
	Summary      *Summary
}

// Recorder persists finished hunts (game row plus found geospots). The
// engine is its only caller.
type Recorder interface {
	SaveResult(ctx context.Context, s *Session, status string) error
}

// NopRecorder discards results. Used in tests and demo mode.
type NopRecorder struct{}

// SaveResult implements Recorder.
func (NopRecorder) SaveResult(context.Context, *Session, string) error { return nil }

// Engine owns the active-session table and drives the hunt state machine.
type Engine struct {
	cfg      Config
	store    Store
	ledger   *ledger.Service
	modes    economy.Modes
	sampler  *economy.Sampler
	jackpot  *economy.Jackpot
	history  *economy.WinRateHistory
	recorder Recorder
	locks    *lock.PlayerLock
	now      func() time.Time
}

// NewEngine wires the engine with its collaborators.
func NewEngine(
	cfg Config,
	store Store,
	ledgerSvc *ledger.Service,
	modes economy.Modes,
	sampler *economy.Sampler,
	jackpot *economy.Jackpot,
	history *economy.WinRateHistory,
	recorder Recorder,
	locks *lock.PlayerLock,
) *Engine {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		ledger:   ledgerSvc,
		modes:    modes,
		sampler:  sampler,
		jackpot:  jackpot,
		history:  history,
		recorder: recorder,
		locks:    locks,
		now:      time.Now,
	}
}

// ActiveSession returns the player's session, if any.
func (e *Engine) ActiveSession(playerID int64) (*Session, bool) {
	return e.store.Get(playerID)
}

// StartSession starts a hunt for the player around the given center.
// It fails without side effects on insufficient balance, exceeded daily
// limit, an invalid center or an already active session. On success the
// entry fee is debited, the play is counted against today's limit, a share
// of the fee feeds the jackpot pool and the hidden points are generated
// with the mode's current difficulty-adjusted win probability.
func (e *Engine) StartSession(ctx context.Context, playerID, chatID int64, modeID string, center geo.Point) (*Session, error) {
	mode, err := e.modes.Get(modeID)
	if err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}

	var session *Session
	err = e.locks.WithLock(playerID, func() error {
		if _, ok := e.store.Get(playerID); ok {
			return ErrSessionExists
		}

		balance, err := e.ledger.Balance(ctx, playerID)
		if err != nil {
			return err
		}
		if balance < mode.EntryFee {
			return ledger.ErrInsufficientBalance
		}
		if err := e.ledger.CheckDailyLimit(playerID); err != nil {
			return err
		}

		if err := e.ledger.Debit(ctx, playerID, mode.EntryFee, model.TxTypeEntryFee); err != nil {
			return err
		}
		e.ledger.RecordPlay(playerID)

		share := mode.EntryFee * e.cfg.JackpotSharePct / 100
		if share < 1 {
			share = 1
		}
		e.jackpot.Contribute(share)

		now := e.now()
		session = &Session{
			PlayerID:  playerID,
			ChatID:    chatID,
			Mode:      mode,
			Center:    center,
			Points:    e.generatePoints(mode, center),
			CreatedAt: now,
			UpdatedAt: now,
		}
		e.store.Put(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", playerID).
		Str("mode", mode.ID).
		Int("points", len(session.Points)).
		Msg("Hunt started")

	return session, nil
}

// generatePoints scatters hidden points at random bearings and distances
// within the search radius, rolling each point's prize with the current
// adjusted win probability.
func (e *Engine) generatePoints(mode *economy.Mode, center geo.Point) []HiddenPoint {
	prob := economy.AdjustDifficulty(mode, e.history.Snapshot(mode.ID))

	points := make([]HiddenPoint, e.cfg.PointsPerGame)
	for i := range points {
		bearing := e.sampler.Bearing()
		distance := e.sampler.DistanceWithin(e.cfg.FindDistanceMeters, e.cfg.MaxDistanceMeters)

		p := HiddenPoint{
			Location:     geo.OffsetPoint(center, bearing, distance),
			lastProgress: -e.cfg.ProgressStep,
		}
		if e.sampler.SampleWinOutcome(prob) {
			p.HasPrize = true
			p.PrizeAmount = e.sampler.SamplePrizeAmount(mode)
		}
		points[i] = p
	}
	return points
}

// ReportLocation evaluates a location update against the player's
// undiscovered points. At most one discovery is resolved per call; progress
// events are suppressed unless the percentage moved by at least the
// configured step since the last report for that point.
func (e *Engine) ReportLocation(ctx context.Context, playerID int64, coord geo.Point) ([]Event, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	var events []Event
	err := e.locks.WithLock(playerID, func() error {
		session, ok := e.store.Get(playerID)
		if !ok {
			return ErrNoActiveSession
		}
		session.UpdatedAt = e.now()

		for i := range session.Points {
			point := &session.Points[i]
			if point.Found {
				continue
			}

			effective := geo.DistanceMeters(coord, point.Location) - e.cfg.GPSToleranceMeters
			if effective < 0 {
				effective = 0
			}
			if effective > e.cfg.MaxDistanceMeters {
				continue
			}

			if effective <= e.cfg.FindDistanceMeters {
				events = append(events, e.resolveFind(ctx, session, i))
				// Only one discovery per update, so the player is
				// not flooded with simultaneous payout messages.
				break
			}

			progress := int((1 - effective/e.cfg.MaxDistanceMeters) * 100)
			if progress < 0 {
				progress = 0
			}
			if progress > 100 {
				progress = 100
			}
			if progress-point.lastProgress < e.cfg.ProgressStep {
				continue
			}
			point.lastProgress = progress
			events = append(events, Event{
				Kind:       EventProgress,
				PointIndex: i,
				Progress:   progress,
			})
		}

		if session.Completed() {
			events = append(events, e.finishSession(ctx, session))
		} else {
			e.store.Put(session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// resolveFind marks the point found, resolves its payout (jackpot draw
// first, overriding the point's own prize) and updates the ledger.
func (e *Engine) resolveFind(ctx context.Context, session *Session, idx int) Event {
	point := &session.Points[idx]
	point.Found = true
	point.lastProgress = 100
	session.FoundOrder = append(session.FoundOrder, idx)

	prize := point.PrizeAmount
	jackpotAmount, isJackpot := e.jackpot.TryWin(e.sampler.Uniform())
	if isJackpot {
		prize = jackpotAmount
		point.HasPrize = true
		point.PrizeAmount = jackpotAmount
	}

	if prize > 0 {
		category := model.TxTypePrize
		if isJackpot {
			category = model.TxTypeJackpot
		}
		if err := e.ledger.Credit(ctx, session.PlayerID, prize, category); err != nil {
			log.Error().Err(err).
				Int64("user_id", session.PlayerID).
				Int64("prize", prize).
				Msg("Failed to credit prize")
		} else {
			session.TotalPayout += prize
		}
	}

	achievements := e.ledger.RecordFind(session.PlayerID, isJackpot, prize)
	level := e.ledger.AddXP(session.PlayerID, e.cfg.XPPerFind)

	log.Info().
		Int64("user_id", session.PlayerID).
		Int("point", idx).
		Int64("prize", prize).
		Bool("jackpot", isJackpot).
		Msg("Point discovered")

	return Event{
		Kind:         EventFound,
		PointIndex:   idx,
		Progress:     100,
		Prize:        prize,
		Jackpot:      isJackpot,
		Achievements: achievements,
		Level:        level,
	}
}

// finishSession removes a fully discovered session, feeds the observed win
// rate back to the difficulty controller and persists the result.
func (e *Engine) finishSession(ctx context.Context, session *Session) Event {
	e.store.Delete(session.PlayerID)

	wins := 0
	for _, p := range session.Points {
		if p.HasPrize {
			wins++
		}
	}
	if len(session.Points) > 0 {
		e.history.Record(session.Mode.ID, float64(wins)/float64(len(session.Points)))
	}

	level := e.ledger.AddXP(session.PlayerID, e.cfg.XPPerCompletion)

	if err := e.recorder.SaveResult(ctx, session, model.GameStatusCompleted); err != nil {
		log.Error().Err(err).
			Int64("user_id", session.PlayerID).
			Msg("Failed to persist completed hunt")
	}

	summary := &Summary{
		Mode:        session.Mode,
		Found:       session.FoundCount(),
		Total:       len(session.Points),
		TotalPayout: session.TotalPayout,
		Elapsed:     e.now().Sub(session.CreatedAt),
	}

	log.Info().
		Int64("user_id", session.PlayerID).
		Int64("total_payout", session.TotalPayout).
		Dur("elapsed", summary.Elapsed).
		Msg("Hunt completed")

	return Event{
		Kind:    EventCompleted,
		Level:   level,
		Summary: summary,
	}
}

// CancelSession removes the player's session unconditionally and returns
// its summary. The entry fee is not refunded.
func (e *Engine) CancelSession(ctx context.Context, playerID int64) (*Summary, error) {
	var summary *Summary
	err := e.locks.WithLock(playerID, func() error {
		session, ok := e.store.Get(playerID)
		if !ok {
			return ErrNoActiveSession
		}
		e.store.Delete(playerID)

		if err := e.recorder.SaveResult(ctx, session, model.GameStatusCancelled); err != nil {
			log.Error().Err(err).
				Int64("user_id", playerID).
				Msg("Failed to persist cancelled hunt")
		}

		summary = &Summary{
			Mode:        session.Mode,
			Found:       session.FoundCount(),
			Total:       len(session.Points),
			TotalPayout: session.TotalPayout,
			Elapsed:     e.now().Sub(session.CreatedAt),
			Cancelled:   true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", playerID).Msg("Hunt cancelled")
	return summary, nil
}

// SetLiveTracking flags whether the player is streaming live location.
func (e *Engine) SetLiveTracking(playerID int64, active bool) {
	_ = e.locks.WithLock(playerID, func() error {
		if session, ok := e.store.Get(playerID); ok {
			session.LiveTracking = active
			e.store.Put(session)
		}
		return nil
	})
}
