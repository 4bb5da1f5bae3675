// Package economy implements the static game-mode parameters, prize
// sampling, dynamic difficulty adjustment and the shared jackpot pool.
package economy

import (
	"errors"
	"fmt"
)

// Errors for mode configuration.
var (
	ErrUnknownMode     = errors.New("unknown game mode")
	ErrBadDistribution = errors.New("prize distribution probabilities must be in (0,1] and sum to at most 1")
)

// PrizeTier is a single entry of a mode's prize distribution. Tiers are an
// ordered sequence so that a uniform draw always resolves in the same order
// regardless of how the configuration was written.
type PrizeTier struct {
	Amount      int64
	Probability float64
}

// Mode holds the immutable parameters of one game mode. Loaded once at
// startup; cumulative thresholds are precomputed by NewMode.
type Mode struct {
	ID                 string
	Name               string
	EntryFee           int64
	MinPrize           int64
	MaxPrize           int64
	BaseWinProbability float64
	Tiers              []PrizeTier

	// cumulative[i] is the sum of Tiers[0..i].Probability.
	cumulative []float64
}

// NewMode validates the mode parameters and precomputes the cumulative
// prize-distribution thresholds.
func NewMode(id, name string, entryFee, minPrize, maxPrize int64, baseWinProb float64, tiers []PrizeTier) (*Mode, error) {
	if id == "" {
		return nil, fmt.Errorf("mode id is required")
	}
	if entryFee <= 0 {
		return nil, fmt.Errorf("mode %s: entry fee must be positive", id)
	}
	if minPrize <= 0 || maxPrize < minPrize {
		return nil, fmt.Errorf("mode %s: prize bounds invalid (min=%d max=%d)", id, minPrize, maxPrize)
	}
	if baseWinProb <= 0 || baseWinProb > 1 {
		return nil, fmt.Errorf("mode %s: base win probability must be in (0,1]", id)
	}

	m := &Mode{
		ID:                 id,
		Name:               name,
		EntryFee:           entryFee,
		MinPrize:           minPrize,
		MaxPrize:           maxPrize,
		BaseWinProbability: baseWinProb,
		Tiers:              tiers,
		cumulative:         make([]float64, len(tiers)),
	}

	sum := 0.0
	for i, tier := range tiers {
		if tier.Probability <= 0 || tier.Probability > 1 {
			return nil, fmt.Errorf("mode %s tier %d: %w", id, i, ErrBadDistribution)
		}
		if tier.Amount < minPrize || tier.Amount > maxPrize {
			return nil, fmt.Errorf("mode %s tier %d: amount %d outside [%d,%d]", id, i, tier.Amount, minPrize, maxPrize)
		}
		sum += tier.Probability
		m.cumulative[i] = sum
	}
	if sum > 1+1e-9 {
		return nil, fmt.Errorf("mode %s: %w (sum=%f)", id, ErrBadDistribution, sum)
	}

	return m, nil
}

// Modes is a registry of game modes keyed by ID.
type Modes map[string]*Mode

// Get returns the mode with the given ID.
func (ms Modes) Get(id string) (*Mode, error) {
	m, ok := ms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, id)
	}
	return m, nil
}

// DefaultModes returns the built-in game modes.
func DefaultModes() Modes {
	standard, err := NewMode("standard", "Standard Hunt", 10, 5, 100, 0.30, []PrizeTier{
		{Amount: 100, Probability: 0.02},
		{Amount: 50, Probability: 0.08},
		{Amount: 20, Probability: 0.30},
		{Amount: 10, Probability: 0.40},
	})
	if err != nil {
		panic(err)
	}

	explorer, err := NewMode("explorer", "Explorer Hunt", 25, 10, 300, 0.25, []PrizeTier{
		{Amount: 300, Probability: 0.01},
		{Amount: 100, Probability: 0.09},
		{Amount: 50, Probability: 0.25},
		{Amount: 25, Probability: 0.40},
	})
	if err != nil {
		panic(err)
	}

	vip, err := NewMode("vip", "VIP Hunt", 100, 50, 1500, 0.20, []PrizeTier{
		{Amount: 1500, Probability: 0.005},
		{Amount: 500, Probability: 0.045},
		{Amount: 200, Probability: 0.25},
		{Amount: 100, Probability: 0.40},
	})
	if err != nil {
		panic(err)
	}

	return Modes{
		standard.ID: standard,
		explorer.ID: explorer,
		vip.ID:      vip,
	}
}
