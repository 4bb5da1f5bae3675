package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/model"
)

// Achievement identifiers.
const (
	AchFirstFind    = "first_find"
	AchFirstJackpot = "first_jackpot"
	AchTenFinds     = "ten_finds"
	AchHighRoller   = "high_roller"
)

// XPPerLevel is the amount of XP needed to advance one level.
const XPPerLevel = 100

const dateLayout = "2006-01-02"

// Options configures a ledger Service.
type Options struct {
	DailyPlayLimit int
	BonusMin       int64
	BonusMax       int64
}

// Service is the per-player economic bookkeeper. Balance and the
// transaction log go through the Store; daily counters, bonus claims and
// XP are in-memory game state that is not durable across restarts.
type Service struct {
	store   Store
	sampler *economy.Sampler
	opts    Options
	now     func() time.Time

	mu           sync.Mutex
	dailyPlays   map[int64]map[string]int
	lastBonusDay map[int64]string
	xp           map[int64]int64
	finds        map[int64]int
	achievements map[int64]map[string]bool
}

// NewService creates a ledger service over the given store.
func NewService(store Store, sampler *economy.Sampler, opts Options) *Service {
	if opts.DailyPlayLimit <= 0 {
		opts.DailyPlayLimit = 10
	}
	if opts.BonusMin <= 0 {
		opts.BonusMin = 10
	}
	if opts.BonusMax < opts.BonusMin {
		opts.BonusMax = opts.BonusMin
	}

	return &Service{
		store:        store,
		sampler:      sampler,
		opts:         opts,
		now:          time.Now,
		dailyPlays:   make(map[int64]map[string]int),
		lastBonusDay: make(map[int64]string),
		xp:           make(map[int64]int64),
		finds:        make(map[int64]int),
		achievements: make(map[int64]map[string]bool),
	}
}

// Balance returns the player's current balance.
func (s *Service) Balance(ctx context.Context, playerID int64) (int64, error) {
	return s.store.Balance(ctx, playerID)
}

// History returns the player's most recent transactions, newest first.
func (s *Service) History(ctx context.Context, playerID int64, limit int) ([]*model.Transaction, error) {
	return s.store.Transactions(ctx, playerID, limit)
}

// Credit adds a positive amount to the player's balance and records a
// completed transaction of the given category.
func (s *Service) Credit(ctx context.Context, playerID int64, amount int64, category string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if _, err := s.store.AdjustBalance(ctx, playerID, amount); err != nil {
		return fmt.Errorf("credit %s: %w", category, err)
	}

	s.record(ctx, playerID, amount, category)
	return nil
}

// Debit subtracts a positive amount from the player's balance. It fails
// with ErrInsufficientBalance, leaving the balance unchanged, if the result
// would be negative.
func (s *Service) Debit(ctx context.Context, playerID int64, amount int64, category string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if _, err := s.store.AdjustBalance(ctx, playerID, -amount); err != nil {
		return fmt.Errorf("debit %s: %w", category, err)
	}

	s.record(ctx, playerID, -amount, category)
	return nil
}

func (s *Service) record(ctx context.Context, playerID, amount int64, category string) {
	err := s.store.AppendTransaction(ctx, &model.Transaction{
		UserID:   playerID,
		Amount:   amount,
		Type:     category,
		Status:   model.TxStatusCompleted,
		Provider: model.ProviderInternal,
	})
	if err != nil {
		// The balance is already adjusted; a lost log entry is not
		// worth failing the game action over.
		log.Error().Err(err).
			Int64("user_id", playerID).
			Str("type", category).
			Msg("Failed to append transaction")
	}
}

// DailyPlayCount returns how many sessions the player has started on the
// calendar date of t.
func (s *Service) DailyPlayCount(playerID int64, t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyPlays[playerID][t.Format(dateLayout)]
}

// CheckDailyLimit returns ErrDailyLimitExceeded when the player has reached
// the per-date session cap.
func (s *Service) CheckDailyLimit(playerID int64) error {
	if s.DailyPlayCount(playerID, s.now()) >= s.opts.DailyPlayLimit {
		return ErrDailyLimitExceeded
	}
	return nil
}

// RecordPlay increments today's play counter. Counters for older dates are
// dropped, so the map never grows past one date per player.
func (s *Service) RecordPlay(playerID int64) {
	today := s.now().Format(dateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	days := s.dailyPlays[playerID]
	if days == nil || days[today] == 0 {
		days = map[string]int{today: 0}
		s.dailyPlays[playerID] = days
	}
	days[today]++
}

// GrantDailyBonus credits a random bonus once per calendar date. Returns
// ErrBonusClaimed if already claimed today.
func (s *Service) GrantDailyBonus(ctx context.Context, playerID int64) (int64, error) {
	today := s.now().Format(dateLayout)

	s.mu.Lock()
	if s.lastBonusDay[playerID] == today {
		s.mu.Unlock()
		return 0, ErrBonusClaimed
	}
	s.lastBonusDay[playerID] = today
	s.mu.Unlock()

	amount := s.sampler.AmountInRange(s.opts.BonusMin, s.opts.BonusMax)
	if err := s.Credit(ctx, playerID, amount, model.TxTypeBonus); err != nil {
		s.mu.Lock()
		delete(s.lastBonusDay, playerID)
		s.mu.Unlock()
		return 0, err
	}

	return amount, nil
}

// AddXP grants experience points and returns the player's level afterwards.
func (s *Service) AddXP(playerID int64, points int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xp[playerID] += points
	return 1 + int(s.xp[playerID]/XPPerLevel)
}

// Level returns the player's current level.
func (s *Service) Level(playerID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1 + int(s.xp[playerID]/XPPerLevel)
}

// XP returns the player's accumulated experience points.
func (s *Service) XP(playerID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xp[playerID]
}

// RecordFind tracks a discovered point and returns any achievements newly
// unlocked by it.
func (s *Service) RecordFind(playerID int64, jackpot bool, prize int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finds[playerID]++

	var unlocked []string
	award := func(id string) {
		set := s.achievements[playerID]
		if set == nil {
			set = make(map[string]bool)
			s.achievements[playerID] = set
		}
		if !set[id] {
			set[id] = true
			unlocked = append(unlocked, id)
		}
	}

	award(AchFirstFind)
	if jackpot {
		award(AchFirstJackpot)
	}
	if s.finds[playerID] >= 10 {
		award(AchTenFinds)
	}
	if prize >= 500 {
		award(AchHighRoller)
	}

	return unlocked
}

// Achievements returns the player's unlocked achievement ids.
func (s *Service) Achievements(playerID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for id := range s.achievements[playerID] {
		out = append(out, id)
	}
	return out
}
