package combo

import (
	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Overflow guards. Both are soft caps: generation truncates with a warning,
// it never fails the candle.
const (
	// MaxInputSignals bounds the deduplicated signal set considered at one
	// candle; anything beyond is truncated in the given order.
	MaxInputSignals = 8

	// MaxPerSize bounds retained combinations for a single subset size.
	MaxPerSize = 50

	// MaxPerCandle bounds retained combinations across all sizes for one
	// candle; generation stops entirely once a further qualifying subset
	// would exceed it.
	MaxPerCandle = 200
)

// GeneratorConfig holds the per-run combination constraints.
type GeneratorConfig struct {
	RequiredSignals     int     `yaml:"required_signals"`      // Minimum subset size
	MaxSignals          int     `yaml:"max_signals"`           // Maximum subset size
	MinCombinedStrength float64 `yaml:"min_combined_strength"` // Sum-of-strengths floor
}

// CandleContext carries the candle and regime snapshot a retained
// combination is enriched with.
type CandleContext struct {
	Index     int
	Candle    models.Candle
	Coin      string
	Timeframe string
	Regime    models.RegimeState
}

// Generate enumerates all signal subsets at one candle that satisfy the
// configured size range and combined-strength floor, enriched with the
// candle context. Subsets of each size k are produced in lexicographic
// index order, which keeps the overflow caps deterministic. The second
// return reports whether a qualifying subset was actually dropped to a
// cap; filling a cap exactly with nothing left over is not truncation.
func Generate(signals []models.Signal, cfg GeneratorConfig, ctx CandleContext) ([]models.Combination, bool) {
	if len(signals) > MaxInputSignals {
		log.Warn().
			Str("coin", ctx.Coin).
			Int("candle", ctx.Index).
			Int("signals", len(signals)).
			Int("cap", MaxInputSignals).
			Msg("signal set truncated before combination generation")
		signals = signals[:MaxInputSignals]
	}

	n := len(signals)
	if n == 0 {
		return nil, false
	}

	minSize := clampSize(cfg.RequiredSignals, n)
	maxSize := clampSize(cfg.MaxSignals, n)
	if maxSize < minSize {
		maxSize = minSize
	}

	var retained []models.Combination
	truncated := false
	candleFull := false

	for k := minSize; k <= maxSize && !candleFull; k++ {
		sizeCount := 0

		forEachSubset(n, k, func(indices []int) bool {
			strength := 0.0
			for _, idx := range indices {
				strength += signals[idx].Strength
			}
			if strength < cfg.MinCombinedStrength {
				return true
			}

			// Caps are checked against the next qualifying subset, so a
			// size that fills a cap exactly completes without a warning.
			if len(retained) >= MaxPerCandle {
				truncated = true
				candleFull = true
				return false
			}
			if sizeCount >= MaxPerSize {
				truncated = true
				return false
			}

			members := make([]models.Signal, k)
			for i, idx := range indices {
				members[i] = signals[idx]
			}

			retained = append(retained, models.Combination{
				Signals:          members,
				CombinedStrength: strength,
				CandleIndex:      ctx.Index,
				Time:             ctx.Candle.Timestamp,
				Price:            ctx.Candle.Close,
				Coin:             ctx.Coin,
				Timeframe:        ctx.Timeframe,
				MarketRegime:     ctx.Regime.Regime,
				RegimeConfidence: ctx.Regime.Confidence,
				Signature:        Signature(members),
			})

			sizeCount++
			return true
		})
	}

	if truncated {
		log.Warn().
			Str("coin", ctx.Coin).
			Int("candle", ctx.Index).
			Int("retained", len(retained)).
			Msg("combination generation hit overflow cap")
	}

	return retained, truncated
}

// clampSize bounds a configured subset size into [1, n].
func clampSize(size, n int) int {
	if size < 1 {
		return 1
	}
	if size > n {
		return n
	}
	return size
}

// forEachSubset visits every k-subset of {0..n-1} in lexicographic order
// using the standard next-combination index advance: keep k increasing
// indices, advance the rightmost movable one and reset everything after it.
// The visitor returns false to stop enumeration for this size.
func forEachSubset(n, k int, visit func(indices []int) bool) {
	if k <= 0 || k > n {
		return
	}

	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	for {
		if !visit(indices) {
			return
		}

		// Find the rightmost index that can still advance.
		pos := k - 1
		for pos >= 0 && indices[pos] == n-k+pos {
			pos--
		}
		if pos < 0 {
			return
		}

		indices[pos]++
		for i := pos + 1; i < k; i++ {
			indices[i] = indices[i-1] + 1
		}
	}
}
