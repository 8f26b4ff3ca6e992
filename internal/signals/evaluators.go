package signals

import (
	"fmt"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/regime"
)

// SnapshotSource is the default SignalSource used by the CLI: it reads a
// precomputed indicator snapshot and turns threshold crossings into
// discrete signals. It stands in for the richer evaluator library the
// scanner side of the system carries; the backtest core only sees the
// SignalSource interface either way.
type SnapshotSource struct {
	config EvaluatorConfig
}

// EvaluatorConfig holds the thresholds for the built-in evaluators.
type EvaluatorConfig struct {
	RSIOversold   float64 `yaml:"rsi_oversold"`    // Default: 30
	RSIOverbought float64 `yaml:"rsi_overbought"`  // Default: 70
	ADXTrendFloor float64 `yaml:"adx_trend_floor"` // Default: 25
}

// DefaultEvaluatorConfig returns the standard evaluator thresholds.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		RSIOversold:   30,
		RSIOverbought: 70,
		ADXTrendFloor: 25,
	}
}

// NewSnapshotSource creates the snapshot-driven signal source.
func NewSnapshotSource(config EvaluatorConfig) *SnapshotSource {
	return &SnapshotSource{config: config}
}

// GetSignals evaluates the built-in indicator rules at one candle. Signal
// strengths are regime-weighted here, before they reach the combination
// generator; the backtest loop never reweights them.
func (s *SnapshotSource) GetSignals(candle models.Candle, snapshot models.IndicatorSnapshot, candleIndex int, regimeLabel string) ([]models.Signal, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("indicator snapshot is required for candle %d", candleIndex)
	}

	var out []models.Signal
	r := regime.Parse(regimeLabel)

	if sig, ok := s.evalRSI(snapshot, candleIndex); ok {
		out = append(out, weighted(sig, r))
	}
	if sig, ok := s.evalMACD(snapshot, candleIndex); ok {
		out = append(out, weighted(sig, r))
	}
	if sig, ok := s.evalSqueeze(snapshot, candleIndex); ok {
		out = append(out, weighted(sig, r))
	}
	if sig, ok := s.evalADX(snapshot, candleIndex, candle); ok {
		out = append(out, weighted(sig, r))
	}

	return out, nil
}

// weighted applies the signal-level regime multiplier and clamps the
// result back into [0,100].
func weighted(sig models.Signal, r regime.Regime) models.Signal {
	sig.Strength *= regime.SignalMultiplier(r, sig.Type, sig.Direction)
	if sig.Strength > 100 {
		sig.Strength = 100
	} else if sig.Strength < 0 {
		sig.Strength = 0
	}
	return sig
}

func (s *SnapshotSource) evalRSI(snapshot models.IndicatorSnapshot, idx int) (models.Signal, bool) {
	rsi, ok := snapshot.At("rsi", idx)
	if !ok {
		return models.Signal{}, false
	}

	switch {
	case rsi <= s.config.RSIOversold:
		// Deeper oversold reads stronger.
		strength := 60 + 2*(s.config.RSIOversold-rsi)
		return models.Signal{
			Type:      "RSI",
			Value:     "Oversold Entry",
			Strength:  strength,
			IsEvent:   false,
			Direction: models.Bullish,
			Priority:  2,
		}, true
	case rsi >= s.config.RSIOverbought:
		strength := 60 + 2*(rsi-s.config.RSIOverbought)
		return models.Signal{
			Type:      "RSI",
			Value:     "Overbought Entry",
			Strength:  strength,
			IsEvent:   false,
			Direction: models.Bearish,
			Priority:  2,
		}, true
	}
	return models.Signal{}, false
}

func (s *SnapshotSource) evalMACD(snapshot models.IndicatorSnapshot, idx int) (models.Signal, bool) {
	macd, ok1 := snapshot.At("macd", idx)
	sigLine, ok2 := snapshot.At("macd_signal", idx)
	prevMACD, ok3 := snapshot.At("macd", idx-1)
	prevSig, ok4 := snapshot.At("macd_signal", idx-1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return models.Signal{}, false
	}

	crossedUp := prevMACD <= prevSig && macd > sigLine
	crossedDown := prevMACD >= prevSig && macd < sigLine
	if !crossedUp && !crossedDown {
		return models.Signal{}, false
	}

	sig := models.Signal{
		Type:     "MACD",
		Strength: 70,
		IsEvent:  true, // Cross is a transient trigger, not a state
		Priority: 1,
	}
	if crossedUp {
		sig.Value = "Bullish Cross"
		sig.Direction = models.Bullish
	} else {
		sig.Value = "Bearish Cross"
		sig.Direction = models.Bearish
	}
	return sig, true
}

func (s *SnapshotSource) evalSqueeze(snapshot models.IndicatorSnapshot, idx int) (models.Signal, bool) {
	active, ok := snapshot.At("squeeze", idx)
	if !ok || active < 1 {
		return models.Signal{}, false
	}

	prev, hadPrev := snapshot.At("squeeze", idx-1)
	justFired := hadPrev && prev < 1

	sig := models.Signal{
		Type:      "Squeeze",
		Strength:  65,
		Direction: models.Neutral,
		Priority:  3,
	}
	if justFired {
		sig.Value = "Squeeze Start"
		sig.IsEvent = true
	} else {
		sig.Value = "Squeeze Active"
	}
	return sig, true
}

func (s *SnapshotSource) evalADX(snapshot models.IndicatorSnapshot, idx int, candle models.Candle) (models.Signal, bool) {
	adx, ok := snapshot.At("adx", idx)
	if !ok || adx < s.config.ADXTrendFloor {
		return models.Signal{}, false
	}

	direction := models.Neutral
	if plusDI, okP := snapshot.At("plus_di", idx); okP {
		if minusDI, okM := snapshot.At("minus_di", idx); okM {
			if plusDI > minusDI {
				direction = models.Bullish
			} else if minusDI > plusDI {
				direction = models.Bearish
			}
		}
	}

	strength := 50 + (adx - s.config.ADXTrendFloor)
	if strength > 95 {
		strength = 95
	}

	return models.Signal{
		Type:      "ADX",
		Value:     "Strong Trend",
		Strength:  strength,
		Direction: direction,
		Priority:  3,
	}, true
}
