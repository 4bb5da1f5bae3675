package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testMode(t *testing.T) *Mode {
	t.Helper()
	mode, err := NewMode("standard", "Standard Hunt", 10, 5, 100, 0.30, []PrizeTier{
		{Amount: 100, Probability: 0.02},
		{Amount: 50, Probability: 0.08},
		{Amount: 20, Probability: 0.30},
	})
	require.NoError(t, err)
	return mode
}

func TestNewModeValidation(t *testing.T) {
	tests := []struct {
		name    string
		fee     int64
		min     int64
		max     int64
		prob    float64
		tiers   []PrizeTier
		wantErr bool
	}{
		{"valid", 10, 5, 100, 0.3, []PrizeTier{{Amount: 50, Probability: 0.5}}, false},
		{"no tiers is valid", 10, 5, 100, 0.3, nil, false},
		{"zero fee", 0, 5, 100, 0.3, nil, true},
		{"max below min", 10, 100, 5, 0.3, nil, true},
		{"probability above one", 10, 5, 100, 1.5, nil, true},
		{"tier probability zero", 10, 5, 100, 0.3, []PrizeTier{{Amount: 50, Probability: 0}}, true},
		{"tier amount out of bounds", 10, 5, 100, 0.3, []PrizeTier{{Amount: 500, Probability: 0.1}}, true},
		{"distribution sums above one", 10, 5, 100, 0.3, []PrizeTier{
			{Amount: 50, Probability: 0.7},
			{Amount: 20, Probability: 0.4},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMode("m", "M", tt.fee, tt.min, tt.max, tt.prob, tt.tiers)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvePrizeWalksTiersInOrder(t *testing.T) {
	mode := testMode(t)

	tests := []struct {
		name     string
		draw     float64
		expected int64
	}{
		{"first tier", 0.01, 100},
		{"first tier boundary", 0.019999, 100},
		{"second tier", 0.05, 50},
		{"third tier", 0.25, 20},
		{"residual mass falls back to min", 0.9, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolvePrize(mode, tt.draw))
		})
	}
}

// An exhausted distribution must fall back deterministically to the mode's
// minimum prize: verified with a draw of exactly 1.0.
func TestResolvePrizeExhaustedFallsBackToMinimum(t *testing.T) {
	mode := testMode(t)
	assert.Equal(t, mode.MinPrize, resolvePrize(mode, 1.0))
}

func TestSampleWinOutcome(t *testing.T) {
	win := NewSamplerWithDraw(func() float64 { return 0.1 })
	lose := NewSamplerWithDraw(func() float64 { return 0.9 })

	assert.True(t, win.SampleWinOutcome(0.3))
	assert.False(t, lose.SampleWinOutcome(0.3))
	assert.False(t, win.SampleWinOutcome(0.1))
}

// Every draw resolves to either a configured tier amount or the minimum
// prize, never anything else.
func TestSamplePrizeAmountDomainProperty(t *testing.T) {
	mode := testMode(t)

	valid := map[int64]bool{mode.MinPrize: true}
	for _, tier := range mode.Tiers {
		valid[tier.Amount] = true
	}

	rapid.Check(t, func(t *rapid.T) {
		draw := rapid.Float64Range(0, 1).Draw(t, "draw")
		amount := resolvePrize(mode, draw)
		if !valid[amount] {
			t.Fatalf("draw %f resolved to unexpected amount %d", draw, amount)
		}
	})
}

func TestAdjustDifficulty(t *testing.T) {
	mode := testMode(t)
	base := mode.BaseWinProbability

	repeat := func(rate float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = rate
		}
		return out
	}

	tests := []struct {
		name     string
		history  []float64
		expected float64
	}{
		{"no history returns base", nil, base},
		{"below sample threshold returns base", repeat(0.9, MinHistorySamples-1), base},
		{"within band returns base", repeat(base, MinHistorySamples), base},
		{"slightly high still in band", repeat(base * 1.19, MinHistorySamples), base},
		{"too many wins scales down to inner clamp", repeat(base*2, MinHistorySamples), base * (1 - InnerClampFactor)},
		{"too few wins scales up to inner clamp", repeat(base*0.4, MinHistorySamples), base * (1 + InnerClampFactor)},
		{"all losses scales up to inner clamp", repeat(0, MinHistorySamples), base * (1 + InnerClampFactor)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AdjustDifficulty(mode, tt.history), 1e-9)
		})
	}
}

// The adjusted probability always stays inside the inner clamp band and
// inside (0,1] for any history.
func TestAdjustDifficultyBoundsProperty(t *testing.T) {
	mode := testMode(t)
	base := mode.BaseWinProbability

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "samples")
		history := make([]float64, n)
		for i := range history {
			history[i] = rapid.Float64Range(0, 1).Draw(t, "rate")
		}

		adjusted := AdjustDifficulty(mode, history)

		if adjusted <= 0 || adjusted > 1 {
			t.Fatalf("adjusted probability out of range: %f", adjusted)
		}
		if adjusted < base*(1-InnerClampFactor)-1e-9 || adjusted > base*(1+InnerClampFactor)+1e-9 {
			t.Fatalf("adjusted probability %f outside inner clamp around base %f", adjusted, base)
		}
	})
}

func TestWinRateHistoryWindow(t *testing.T) {
	h := NewWinRateHistory(10)

	for i := 0; i < 15; i++ {
		h.Record("standard", float64(i))
	}

	rates := h.Snapshot("standard")
	require.Len(t, rates, 10)
	assert.Equal(t, 5.0, rates[0])
	assert.Equal(t, 14.0, rates[9])

	assert.Empty(t, h.Snapshot("vip"))
}

func TestJackpotTryWin(t *testing.T) {
	j := NewJackpot(1000, 0.0005)
	j.Contribute(500)
	require.Equal(t, int64(1500), j.Pool())

	// Draw above the probability never wins.
	amount, won := j.TryWin(0.5)
	assert.False(t, won)
	assert.Zero(t, amount)
	assert.Equal(t, int64(1500), j.Pool())

	// A winning draw pays the whole pool and resets to the floor.
	amount, won = j.TryWin(0.0001)
	assert.True(t, won)
	assert.Equal(t, int64(1500), amount)
	assert.Equal(t, int64(1000), j.Pool())
}

func TestJackpotContributeIgnoresNonPositive(t *testing.T) {
	j := NewJackpot(100, 0)
	j.Contribute(0)
	j.Contribute(-50)
	assert.Equal(t, int64(100), j.Pool())
}
