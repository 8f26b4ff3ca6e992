package models

import (
	"strings"
	"time"
)

// Direction classifies which way a signal points
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Candle represents one OHLCV bar. Candle series are ordered time-ascending
// and treated as immutable for the lifetime of a backtest run.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Signal is a typed, scored observation produced by one indicator evaluator
// at one candle. Signals are ephemeral: they live only for the candle they
// were evaluated on.
type Signal struct {
	Type      string    `json:"type"`     // Indicator family, e.g. "RSI"
	Value     string    `json:"value"`    // Qualitative label, e.g. "Oversold Entry"
	Strength  float64   `json:"strength"` // 0-100, post regime weighting
	IsEvent   bool      `json:"is_event"` // Transient trigger vs persistent state
	Direction Direction `json:"direction"`
	Priority  int       `json:"priority"`
}

// Combination is a strength-qualified subset of simultaneous signals at one
// candle, enriched with the candle and regime context it fired under.
type Combination struct {
	Signals          []Signal  `json:"signals"`
	CombinedStrength float64   `json:"combined_strength"` // Sum of member strengths
	CandleIndex      int       `json:"candle_index"`
	Time             time.Time `json:"time"`
	Price            float64   `json:"price"` // Close of the candle it fired on
	Coin             string    `json:"coin"`
	Timeframe        string    `json:"timeframe"`
	MarketRegime     string    `json:"market_regime"`
	RegimeConfidence float64   `json:"regime_confidence"`
	Signature        string    `json:"signature"`
}

// Match is a Combination accepted by the subset filter and the
// non-consecutive dedup rule. Outcome labeling (success/failure, realized
// move) is performed by the caller after the run and is zero-valued here.
type Match struct {
	Combination

	// Filled in by the caller during outcome labeling.
	Success   bool    `json:"success"`
	PriceMove float64 `json:"price_move"`
	Labeled   bool    `json:"labeled"`
}

// RegimeState is the per-candle output of the external regime classifier.
type RegimeState struct {
	Regime     string  `json:"regime"`     // uptrend|downtrend|ranging|unknown
	Confidence float64 `json:"confidence"` // 0.0-1.0
}

// Strategy is a previously discovered combination promoted to a persisted,
// reusable object with live-performance counters attached.
type Strategy struct {
	ID             string    `json:"id" db:"id"`
	Coin           string    `json:"coin" db:"coin"`
	Timeframe      string    `json:"timeframe" db:"timeframe"`
	Signature      string    `json:"signature" db:"signature"`
	SignalTypes    []string  `json:"signal_types" db:"-"`
	DominantRegime string    `json:"dominant_regime" db:"dominant_regime"`
	TradeCount     int       `json:"trade_count" db:"trade_count"`
	ProfitFactor   float64   `json:"profit_factor" db:"profit_factor"`
	WinRate        float64   `json:"win_rate" db:"win_rate"` // Percent, 0-100
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IndicatorSnapshot maps indicator name to its per-candle-indexed value
// series. It is precomputed once per run and passed by reference into the
// signal source and the conviction scorer; nothing in this module writes it.
type IndicatorSnapshot map[string][]float64

// At returns the value of the named indicator at a candle index, with ok
// reporting whether the series exists and covers that index.
func (s IndicatorSnapshot) At(name string, idx int) (float64, bool) {
	series, exists := s[name]
	if !exists || idx < 0 || idx >= len(series) {
		return 0, false
	}
	return series[idx], true
}

// Latest returns the last value of the named indicator series.
func (s IndicatorSnapshot) Latest(name string) (float64, bool) {
	series, exists := s[name]
	if !exists || len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// SignatureSeparator joins member signal types into a combination signature.
const SignatureSeparator = " + "

// TypesFromSignature splits a combination signature back into its member
// signal types.
func TypesFromSignature(signature string) []string {
	if signature == "" {
		return nil
	}
	return strings.Split(signature, SignatureSeparator)
}
