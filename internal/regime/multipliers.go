package regime

import (
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// SignalCategory groups indicator families by how they behave across
// regimes. The multiplier table below keys on the category, not on the raw
// indicator name, so new evaluators inherit sensible weighting for free.
type SignalCategory string

const (
	TrendFollowing SignalCategory = "trend_following"
	MeanReversion  SignalCategory = "mean_reversion"
	Breakout       SignalCategory = "breakout"
)

// signalCategories maps indicator families to their behavioral category.
// Unlisted types fall through to a 1.0 multiplier.
var signalCategories = map[string]SignalCategory{
	"MACD":     TrendFollowing,
	"EMA":      TrendFollowing,
	"SMA":      TrendFollowing,
	"ADX":      TrendFollowing,
	"Ichimoku": TrendFollowing,
	"PSAR":     TrendFollowing,

	"RSI":        MeanReversion,
	"Stochastic": MeanReversion,
	"CCI":        MeanReversion,
	"WilliamsR":  MeanReversion,
	"Bollinger":  MeanReversion,
	"Fibonacci":  MeanReversion,
	"Pivot":      MeanReversion,

	"Squeeze":  Breakout,
	"Donchian": Breakout,
	"ATR":      Breakout,
	"Volume":   Breakout,
	"OBV":      Breakout,
}

// CategoryOf returns the behavioral category for a signal type, with ok
// reporting whether the type is in the table.
func CategoryOf(signalType string) (SignalCategory, bool) {
	cat, ok := signalCategories[signalType]
	return cat, ok
}

// signalWeight is one cell of the signal-level multiplier table: how much
// to boost or dampen a signal category in a regime, split by direction.
type signalWeight struct {
	withTrend    float64 // Direction agrees with the regime bias
	againstTrend float64 // Direction fights the regime bias
	neutral      float64
}

// signalWeights is the regime x category table. Trending regimes boost
// trend-following in the trend direction and dampen counter-trend
// mean-reversion; ranging boosts mean-reversion and dampens trend entries.
var signalWeights = map[Regime]map[SignalCategory]signalWeight{
	Uptrend: {
		TrendFollowing: {withTrend: 1.3, againstTrend: 0.75, neutral: 1.0},
		MeanReversion:  {withTrend: 0.9, againstTrend: 0.8, neutral: 0.85},
		Breakout:       {withTrend: 1.15, againstTrend: 0.85, neutral: 1.0},
	},
	Downtrend: {
		TrendFollowing: {withTrend: 1.3, againstTrend: 0.75, neutral: 1.0},
		MeanReversion:  {withTrend: 0.9, againstTrend: 0.8, neutral: 0.85},
		Breakout:       {withTrend: 1.15, againstTrend: 0.85, neutral: 1.0},
	},
	Ranging: {
		TrendFollowing: {withTrend: 0.8, againstTrend: 0.8, neutral: 0.85},
		MeanReversion:  {withTrend: 1.25, againstTrend: 1.25, neutral: 1.1},
		Breakout:       {withTrend: 0.95, againstTrend: 0.95, neutral: 0.9},
	},
}

// SignalMultiplier adjusts an individual signal's strength for the current
// regime. It is applied by the signal source before strengths reach the
// combination generator; the core loop never recomputes it. Unmatched
// (regime, type) pairs return 1.0.
func SignalMultiplier(r Regime, signalType string, direction models.Direction) float64 {
	category, ok := signalCategories[signalType]
	if !ok {
		return 1.0
	}

	table, ok := signalWeights[r]
	if !ok {
		return 1.0
	}
	weight := table[category]

	switch {
	case direction == models.Neutral:
		return weight.neutral
	case directionMatchesRegime(r, direction):
		return weight.withTrend
	default:
		return weight.againstTrend
	}
}

// directionMatchesRegime reports whether a signal direction agrees with the
// regime bias. In a ranging regime both directions count as "with trend"
// since mean-reversion entries fire both ways.
func directionMatchesRegime(r Regime, direction models.Direction) bool {
	switch r {
	case Uptrend:
		return direction == models.Bullish
	case Downtrend:
		return direction == models.Bearish
	case Ranging:
		return true
	default:
		return false
	}
}

// Strategy-level alignment multipliers. Base values express how well a
// strategy's historical dominant regime fits current conditions; confidence
// scales the base toward neutral so a low-confidence classification cannot
// swing conviction hard either way.
const (
	alignedBase  = 1.25 // Current regime equals the strategy's dominant regime
	partialBase  = 1.1  // One side ranging, the other directional
	mismatchBase = 0.8
)

// StrategyMultiplier adjusts a strategy's overall conviction by how well
// the current regime aligns with the regime the strategy historically
// performed in. At confidence 0 the result is always 1.0; at confidence 1
// it equals the base alignment multiplier.
func StrategyMultiplier(current, dominant Regime, confidence float64) float64 {
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	base := mismatchBase
	switch {
	case current == dominant:
		base = alignedBase
	case current == Ranging && dominant.IsDirectional(),
		dominant == Ranging && current.IsDirectional():
		base = partialBase
	}

	return 1.0 + (base-1.0)*confidence
}
