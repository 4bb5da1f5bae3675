package economy

import (
	"math/rand"
	"sync"
	"time"
)

// Difficulty adjustment parameters. The adjustment is a feedback controller
// over recent session win rates; it only engages once enough history exists.
const (
	// MinHistorySamples is the number of recorded session win rates
	// required before the controller engages.
	MinHistorySamples = 10

	// HighWinRatio and LowWinRatio bound the dead zone around the base
	// probability: observed/base above the high ratio scales down,
	// below the low ratio scales up.
	HighWinRatio = 1.2
	LowWinRatio  = 0.8

	// OuterClampFactor bounds the multiplicative adjustment at +/-30%.
	OuterClampFactor = 0.30

	// InnerClampFactor applies a second, narrower +/-15% bound on the
	// adjusted probability itself, so a single adjustment never moves
	// the effective rate more than 15% off base.
	InnerClampFactor = 0.15
)

// DrawFunc produces a uniform draw in [0,1). Injected in tests to pin
// outcomes; production code uses a seeded math/rand source.
type DrawFunc func() float64

// Sampler performs all probabilistic draws for the game. Safe for
// concurrent use.
type Sampler struct {
	mu   sync.Mutex
	draw DrawFunc
}

// NewSampler creates a sampler backed by its own rand source.
func NewSampler() *Sampler {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Sampler{draw: rng.Float64}
}

// NewSamplerWithDraw creates a sampler with an injected draw function.
func NewSamplerWithDraw(draw DrawFunc) *Sampler {
	return &Sampler{draw: draw}
}

func (s *Sampler) uniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draw()
}

// Uniform returns a single uniform draw in [0,1).
func (s *Sampler) Uniform() float64 {
	return s.uniform()
}

// SampleWinOutcome performs a Bernoulli draw against the given probability.
func (s *Sampler) SampleWinOutcome(probability float64) bool {
	return s.uniform() < probability
}

// SamplePrizeAmount draws a prize from the mode's ordered distribution.
// A single uniform draw is walked over the cumulative thresholds in tier
// order; if the draw exceeds all thresholds (distribution sums to <1, or
// rounding left residual mass) the mode's minimum prize is returned.
func (s *Sampler) SamplePrizeAmount(mode *Mode) int64 {
	return resolvePrize(mode, s.uniform())
}

// Bearing returns a uniform bearing in [0, 2*pi).
func (s *Sampler) Bearing() float64 {
	return s.uniform() * 2 * 3.141592653589793
}

// DistanceWithin returns a uniform distance in [min, max) meters.
func (s *Sampler) DistanceWithin(min, max float64) float64 {
	return min + s.uniform()*(max-min)
}

// AmountInRange returns a uniform integer amount in [min, max].
func (s *Sampler) AmountInRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + int64(s.uniform()*float64(max-min+1))
}

// resolvePrize resolves a uniform draw against the mode's distribution.
// Split out so tests can pin the draw value exactly.
func resolvePrize(mode *Mode, draw float64) int64 {
	for i := range mode.Tiers {
		if draw < mode.cumulative[i] {
			return mode.Tiers[i].Amount
		}
	}
	return mode.MinPrize
}

// AdjustDifficulty returns the win probability to use for new sessions,
// given the recorded win rates of recent completed sessions. With fewer
// than MinHistorySamples samples the base probability is returned as is.
// When the observed average drifts outside the [LowWinRatio, HighWinRatio]
// band around the base, the probability is scaled toward the base rate,
// bounded by the outer clamp and then narrowed again by the inner clamp.
func AdjustDifficulty(mode *Mode, history []float64) float64 {
	base := mode.BaseWinProbability
	if len(history) < MinHistorySamples {
		return base
	}

	sum := 0.0
	for _, rate := range history {
		sum += rate
	}
	observed := sum / float64(len(history))
	if observed <= 0 {
		observed = base / (1 + OuterClampFactor)
	}

	ratio := observed / base
	if ratio <= HighWinRatio && ratio >= LowWinRatio {
		return base
	}

	// Scale inversely to the drift, bounded to +/-30%.
	factor := 1 / ratio
	if factor > 1+OuterClampFactor {
		factor = 1 + OuterClampFactor
	}
	if factor < 1-OuterClampFactor {
		factor = 1 - OuterClampFactor
	}
	adjusted := base * factor

	// Second, narrower bound on the result; this is the clamp that
	// actually binds for most inputs.
	if adjusted > base*(1+InnerClampFactor) {
		adjusted = base * (1 + InnerClampFactor)
	}
	if adjusted < base*(1-InnerClampFactor) {
		adjusted = base * (1 - InnerClampFactor)
	}

	if adjusted > 1 {
		adjusted = 1
	}
	return adjusted
}

// WinRateHistory keeps the last N session win rates per mode for the
// difficulty controller. Safe for concurrent use.
type WinRateHistory struct {
	mu    sync.Mutex
	size  int
	rates map[string][]float64
}

// NewWinRateHistory creates a history window of the given size per mode.
func NewWinRateHistory(size int) *WinRateHistory {
	if size < MinHistorySamples {
		size = MinHistorySamples
	}
	return &WinRateHistory{
		size:  size,
		rates: make(map[string][]float64),
	}
}

// Record appends a completed session's win rate for the mode, evicting the
// oldest sample when the window is full.
func (h *WinRateHistory) Record(modeID string, winRate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rates := append(h.rates[modeID], winRate)
	if len(rates) > h.size {
		rates = rates[len(rates)-h.size:]
	}
	h.rates[modeID] = rates
}

// Snapshot returns a copy of the recorded rates for the mode.
func (h *WinRateHistory) Snapshot(modeID string) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	rates := h.rates[modeID]
	out := make([]float64, len(rates))
	copy(out, rates)
	return out
}
