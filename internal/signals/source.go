package signals

import (
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// SignalSource produces the signals active at one candle. Implementations
// may fail per candle; the backtest loop logs and skips the candle rather
// than aborting the run.
type SignalSource interface {
	GetSignals(candle models.Candle, snapshot models.IndicatorSnapshot, candleIndex int, regimeLabel string) ([]models.Signal, error)
}

// RegimeSource classifies the market regime for one candle. A failing
// source degrades to {unknown, 0} for that candle.
type RegimeSource interface {
	GetRegime(candleIndex int) (models.RegimeState, error)
}

// ReduceStrongestPerType collapses multiple signals of the same type at one
// candle into the single strongest instance, preserving first-seen type
// order. Combination generation always runs on the reduced set.
func ReduceStrongestPerType(signals []models.Signal) []models.Signal {
	if len(signals) < 2 {
		return signals
	}

	order := make([]string, 0, len(signals))
	strongest := make(map[string]models.Signal, len(signals))

	for _, sig := range signals {
		best, seen := strongest[sig.Type]
		if !seen {
			order = append(order, sig.Type)
			strongest[sig.Type] = sig
			continue
		}
		if sig.Strength > best.Strength {
			strongest[sig.Type] = sig
		}
	}

	reduced := make([]models.Signal, len(order))
	for i, t := range order {
		reduced[i] = strongest[t]
	}
	return reduced
}
