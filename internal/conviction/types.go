package conviction

import (
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Input contains everything one conviction evaluation reads. All fields
// are treated as read-only; the scorer is a pure function of this input.
type Input struct {
	Strategy *models.Strategy         `json:"strategy"`
	Signals  []models.Signal          `json:"signals"`  // Signals matched for the strategy right now
	Snapshot models.IndicatorSnapshot `json:"snapshot"` // Precomputed indicator series
	Candles  []models.Candle          `json:"candles"`
	Regime   models.RegimeState       `json:"regime"` // Current classification
}

// FactorResult is one factor's contribution with its explanation.
type FactorResult struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
	Err     string  `json:"error,omitempty"`
}

// Result is the complete conviction evaluation output. Score is the
// tier-adjusted value; RawScore is the pre-tier factor sum, both clamped
// to [0,100].
type Result struct {
	StrategyID string                  `json:"strategy_id"`
	Timestamp  time.Time               `json:"timestamp"`
	Score      float64                 `json:"score"`
	RawScore   float64                 `json:"raw_score"`
	Multiplier float64                 `json:"multiplier"` // 1.0, 1.25 or 1.5
	Breakdown  map[string]FactorResult `json:"breakdown"`
}

// Factor and breakdown keys.
const (
	FactorRegime      = "regime_alignment"
	FactorSignal      = "signal_strength"
	FactorVolatility  = "volatility_state"
	FactorPerformance = "historical_performance"
	KeyValidation     = "validation"
)
