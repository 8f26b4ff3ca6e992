package conviction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

func scoringInput() Input {
	return Input{
		Strategy: &models.Strategy{
			ID:             "strat-1",
			Coin:           "BTC",
			Timeframe:      "1h",
			Signature:      "MACD + RSI",
			DominantRegime: "uptrend",
			TradeCount:     4, // Below the live-performance gate
			ProfitFactor:   2.0,
			WinRate:        70,
		},
		Signals: []models.Signal{
			{Type: "RSI", Value: "Oversold Entry", Strength: 85, Direction: models.Bullish},
			{Type: "MACD", Value: "Bullish Cross", Strength: 75, Direction: models.Bullish},
		},
		Snapshot: models.IndicatorSnapshot{
			"squeeze": {0, 0, 1, 1, 1, 1}, // Active for the last four candles
		},
		Candles: []models.Candle{
			{Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Close: 42000},
		},
		Regime: models.RegimeState{Regime: "uptrend", Confidence: 1.0},
	}
}

func TestScore_ReferenceScenario(t *testing.T) {
	// Perfect regime alignment (20) + avg strength 80 with one confluence
	// bonus (45) + four-candle squeeze without ADX (12) + gated performance
	// (0) = raw 77, mid tier 1.25x, adjusted 96.3.
	result := NewScorer(nil).Score(scoringInput())

	require.Empty(t, result.Breakdown[KeyValidation].Err)
	assert.InDelta(t, 20, result.Breakdown[FactorRegime].Score, 1e-9)
	assert.InDelta(t, 45, result.Breakdown[FactorSignal].Score, 1e-9)
	assert.InDelta(t, 12, result.Breakdown[FactorVolatility].Score, 1e-9)
	assert.Zero(t, result.Breakdown[FactorPerformance].Score)

	assert.InDelta(t, 77, result.RawScore, 1e-9)
	assert.Equal(t, 1.25, result.Multiplier)
	assert.Equal(t, 96.3, result.Score)
	assert.Equal(t, "strat-1", result.StrategyID)
}

func TestScore_MissingInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"nil strategy", func(in *Input) { in.Strategy = nil }},
		{"no signals", func(in *Input) { in.Signals = nil }},
		{"nil snapshot", func(in *Input) { in.Snapshot = nil }},
		{"no candles", func(in *Input) { in.Candles = nil }},
		{"empty regime", func(in *Input) { in.Regime = models.RegimeState{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := scoringInput()
			tc.mutate(&input)

			result := NewScorer(nil).Score(input)

			assert.Zero(t, result.Score)
			assert.Zero(t, result.RawScore)
			assert.Equal(t, 1.0, result.Multiplier)
			require.Len(t, result.Breakdown, 1, "no factors should compute on invalid input")
			assert.NotEmpty(t, result.Breakdown[KeyValidation].Err)
		})
	}
}

func TestScore_BoundedAtExtremes(t *testing.T) {
	input := scoringInput()
	input.Strategy.TradeCount = 200
	input.Strategy.ProfitFactor = 10
	input.Strategy.WinRate = 100
	input.Signals = []models.Signal{
		{Type: "RSI", Strength: 100}, {Type: "MACD", Strength: 100},
		{Type: "Squeeze", Strength: 100}, {Type: "ADX", Strength: 100},
	}
	input.Snapshot["adx"] = []float64{60}
	input.Snapshot["squeeze"] = []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	result := NewScorer(nil).Score(input)

	assert.LessOrEqual(t, result.Score, 100.0)
	assert.LessOrEqual(t, result.RawScore, 100.0)
	assert.Equal(t, 1.5, result.Multiplier, "a maxed raw score sits in the high tier")
}

func TestScore_LosingHistoryDragsScore(t *testing.T) {
	winning := scoringInput()
	winning.Strategy.TradeCount = 30
	winning.Strategy.ProfitFactor = 1.8
	winning.Strategy.WinRate = 62

	losing := scoringInput()
	losing.Strategy.TradeCount = 30
	losing.Strategy.ProfitFactor = 0.6
	losing.Strategy.WinRate = 35

	scorer := NewScorer(nil)
	assert.Greater(t, scorer.Score(winning).Score, scorer.Score(losing).Score)
	assert.Negative(t, scorer.Score(losing).Breakdown[FactorPerformance].Score)
}

func TestPerformanceFactor_GatedBelowMinTrades(t *testing.T) {
	input := scoringInput()
	input.Strategy.TradeCount = 9
	input.Strategy.ProfitFactor = 3.0
	input.Strategy.WinRate = 90

	score, details := NewScorer(nil).performanceFactor(input)

	assert.Zero(t, score, "history below the trade minimum is statistical noise")
	assert.Contains(t, details, "insufficient live trades")
}

func TestPerformanceFactor_Values(t *testing.T) {
	input := scoringInput()
	input.Strategy.TradeCount = 50
	input.Strategy.ProfitFactor = 1.5
	input.Strategy.WinRate = 60

	score, _ := NewScorer(nil).performanceFactor(input)

	// Base (1.5-1)*40=20, recency 1.2, win bonus 1 -> 25, at the cap.
	assert.InDelta(t, 25, score, 1e-9)
}

func TestVolatilityFactor_ADXOnlyFallback(t *testing.T) {
	input := scoringInput()
	input.Snapshot = models.IndicatorSnapshot{"adx": {40}}

	score, details := NewScorer(nil).volatilityFactor(input)

	assert.InDelta(t, 3, score, 1e-9, "(40-25)/5 ADX bonus without squeeze data")
	assert.Contains(t, details, "no squeeze data")
}

func TestVolatilityFactor_InactiveSqueeze(t *testing.T) {
	input := scoringInput()
	input.Snapshot = models.IndicatorSnapshot{"squeeze": {1, 1, 0}}

	score, details := NewScorer(nil).volatilityFactor(input)

	assert.Zero(t, score)
	assert.Contains(t, details, "squeeze inactive")
}

func TestVolatilityFactor_DurationBonusCapped(t *testing.T) {
	input := scoringInput()
	input.Snapshot = models.IndicatorSnapshot{
		"squeeze": {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}

	score, _ := NewScorer(nil).volatilityFactor(input)

	assert.InDelta(t, 15, score, 1e-9, "base 10 plus the capped 5-point duration bonus")
}

func TestTier_Monotonic(t *testing.T) {
	scorer := NewScorer(nil)

	assert.Equal(t, 1.0, scorer.tier(64.9))
	assert.Equal(t, 1.25, scorer.tier(65))
	assert.Equal(t, 1.25, scorer.tier(79.9))
	assert.Equal(t, 1.5, scorer.tier(80))
	assert.Equal(t, 1.5, scorer.tier(100))

	prev := 0.0
	for raw := 0.0; raw <= 100; raw += 0.5 {
		mult := scorer.tier(raw)
		assert.GreaterOrEqual(t, mult, prev)
		prev = mult
	}
}

func TestScore_MismatchedRegimeReducesConviction(t *testing.T) {
	aligned := scoringInput()

	opposed := scoringInput()
	opposed.Regime = models.RegimeState{Regime: "downtrend", Confidence: 1.0}

	scorer := NewScorer(nil)
	assert.Greater(t, scorer.Score(aligned).Score, scorer.Score(opposed).Score)
	assert.InDelta(t, 16, scorer.Score(opposed).Breakdown[FactorRegime].Score, 1e-9,
		"0.8x mismatch multiplier against the 20-point cap")
}
