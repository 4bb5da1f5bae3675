package economy

import "sync"

// DefaultJackpotProbability is the fixed, mode-independent chance tested on
// every resolved point.
const DefaultJackpotProbability = 0.0005

// Jackpot is the process-wide shared prize pool. Every session start
// contributes a share of the entry fee; every resolved point gets an
// independent low-probability shot at the whole pool. A single mutex
// serializes wins so the reset never races.
type Jackpot struct {
	mu      sync.Mutex
	pool    int64
	floor   int64
	winProb float64
}

// NewJackpot creates a pool seeded at the floor value.
func NewJackpot(floor int64, winProbability float64) *Jackpot {
	if winProbability <= 0 {
		winProbability = DefaultJackpotProbability
	}
	return &Jackpot{
		pool:    floor,
		floor:   floor,
		winProb: winProbability,
	}
}

// Pool returns the current pool value.
func (j *Jackpot) Pool() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pool
}

// Contribute adds an amount to the pool.
func (j *Jackpot) Contribute(amount int64) {
	if amount <= 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pool += amount
}

// TryWin tests a uniform draw against the jackpot probability. On a win the
// whole pool is paid out and the pool resets to the floor value, discarding
// any contributions made since the last win.
func (j *Jackpot) TryWin(draw float64) (int64, bool) {
	if draw >= j.winProb {
		return 0, false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	amount := j.pool
	j.pool = j.floor
	return amount, true
}
