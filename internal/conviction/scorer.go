package conviction

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/regime"
)

// Scorer combines regime alignment, signal confluence, volatility state
// and live performance into a single bounded conviction score.
type Scorer struct {
	config *Config
}

// Config contains the caps and thresholds of the conviction factors.
type Config struct {
	// Regime alignment (0-20 points)
	RegimeCap float64 `yaml:"regime_cap"` // 20

	// Signal strength and confluence (up to ~60 points)
	StrengthScale  float64 `yaml:"strength_scale"`  // 50: (avg/100)*50
	ConfluenceStep float64 `yaml:"confluence_step"` // 5 per extra member
	ConfluenceCap  float64 `yaml:"confluence_cap"`  // 10

	// Volatility state (0-20 points)
	SqueezeBase        float64 `yaml:"squeeze_base"`         // 10
	SqueezeDurationCap float64 `yaml:"squeeze_duration_cap"` // 5, 1 pt per 2 candles
	ADXFloor           float64 `yaml:"adx_floor"`            // 25
	ADXBonusCap        float64 `yaml:"adx_bonus_cap"`        // 5, 1 pt per 5 ADX above floor

	// Historical live performance (-20..+25 points)
	MinLiveTrades int     `yaml:"min_live_trades"` // 10
	PerformanceLo float64 `yaml:"performance_lo"`  // -20
	PerformanceHi float64 `yaml:"performance_hi"`  // 25

	// Multiplier tiers applied to the raw score.
	TierHighScore float64 `yaml:"tier_high_score"` // 80 -> 1.5x
	TierMidScore  float64 `yaml:"tier_mid_score"`  // 65 -> 1.25x
}

// DefaultConfig returns the production conviction configuration.
func DefaultConfig() *Config {
	return &Config{
		RegimeCap:          20,
		StrengthScale:      50,
		ConfluenceStep:     5,
		ConfluenceCap:      10,
		SqueezeBase:        10,
		SqueezeDurationCap: 5,
		ADXFloor:           25,
		ADXBonusCap:        5,
		MinLiveTrades:      10,
		PerformanceLo:      -20,
		PerformanceHi:      25,
		TierHighScore:      80,
		TierMidScore:       65,
	}
}

// NewScorer creates a conviction scorer; a nil config uses the defaults.
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scorer{config: config}
}

// Score evaluates a candidate strategy against current conditions. Missing
// required inputs yield score 0 with a single top-level breakdown error and
// no factor computation. Each factor is fault-isolated: a failing factor
// contributes 0 and records its error, the others still compute.
func (s *Scorer) Score(input Input) *Result {
	result := &Result{
		Timestamp:  time.Now(),
		Multiplier: 1.0,
		Breakdown:  make(map[string]FactorResult),
	}
	if input.Strategy != nil {
		result.StrategyID = input.Strategy.ID
	}

	if reason := validateInput(input); reason != "" {
		result.Breakdown[KeyValidation] = FactorResult{Err: reason}
		return result
	}

	factors := map[string]func(Input) (float64, string){
		FactorRegime:      s.regimeFactor,
		FactorSignal:      s.signalFactor,
		FactorVolatility:  s.volatilityFactor,
		FactorPerformance: s.performanceFactor,
	}

	raw := 0.0
	for name, fn := range factors {
		fr := safeFactor(name, input, fn)
		result.Breakdown[name] = fr
		raw += fr.Score
	}

	result.RawScore = clamp(0, 100, raw)
	result.Multiplier = s.tier(result.RawScore)
	result.Score = round1(clamp(0, 100, result.RawScore*result.Multiplier))

	return result
}

// validateInput returns a non-empty reason when a required input is absent.
func validateInput(input Input) string {
	switch {
	case input.Strategy == nil:
		return "strategy is required"
	case len(input.Signals) == 0:
		return "matched signals are required"
	case input.Snapshot == nil:
		return "indicator snapshot is required"
	case len(input.Candles) == 0:
		return "candle series is required"
	case input.Regime.Regime == "":
		return "current regime state is required"
	}
	return ""
}

// safeFactor runs one factor, converting a panic into a zero contribution
// with an error note rather than aborting the evaluation.
func safeFactor(name string, input Input, fn func(Input) (float64, string)) (fr FactorResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("factor", name).Interface("panic", r).
				Msg("conviction factor computation failed")
			fr = FactorResult{Err: fmt.Sprintf("factor panicked: %v", r)}
		}
	}()

	score, details := fn(input)
	return FactorResult{Score: score, Details: details}
}

// regimeFactor scores alignment between the current regime and the
// strategy's historical dominant regime, capped at RegimeCap.
func (s *Scorer) regimeFactor(input Input) (float64, string) {
	current := regime.Parse(input.Regime.Regime)
	dominant := regime.Parse(input.Strategy.DominantRegime)

	mult := regime.StrategyMultiplier(current, dominant, input.Regime.Confidence)
	score := math.Min(s.config.RegimeCap, s.config.RegimeCap*mult)

	return score, fmt.Sprintf("current=%s dominant=%s confidence=%.2f multiplier=%.3f",
		current, dominant, input.Regime.Confidence, mult)
}

// signalFactor scores average member strength plus a confluence bonus for
// additional members.
func (s *Scorer) signalFactor(input Input) (float64, string) {
	total := 0.0
	for _, sig := range input.Signals {
		total += sig.Strength
	}
	avg := total / float64(len(input.Signals))

	strength := (avg / 100.0) * s.config.StrengthScale
	confluence := math.Min(s.config.ConfluenceCap, float64(len(input.Signals)-1)*s.config.ConfluenceStep)

	return strength + confluence, fmt.Sprintf("avg_strength=%.1f members=%d confluence_bonus=%.1f",
		avg, len(input.Signals), confluence)
}

// volatilityFactor scores the squeeze state at the latest snapshot index
// plus a trend-strength bonus from ADX. Missing squeeze data falls back to
// the ADX-only bonus.
func (s *Scorer) volatilityFactor(input Input) (float64, string) {
	adxBonus := 0.0
	adx, hasADX := input.Snapshot.Latest("adx")
	if hasADX && adx > s.config.ADXFloor {
		adxBonus = math.Min(s.config.ADXBonusCap, (adx-s.config.ADXFloor)/5.0)
	}

	series, hasSqueeze := input.Snapshot["squeeze"]
	if !hasSqueeze || len(series) == 0 {
		return adxBonus, fmt.Sprintf("no squeeze data, adx_bonus=%.1f", adxBonus)
	}

	if series[len(series)-1] < 1 {
		return adxBonus, fmt.Sprintf("squeeze inactive, adx_bonus=%.1f", adxBonus)
	}

	// Count consecutive squeeze candles backwards from the latest bar.
	duration := 0
	for i := len(series) - 1; i >= 0 && series[i] >= 1; i-- {
		duration++
	}
	durationBonus := math.Min(s.config.SqueezeDurationCap, float64(duration)/2.0)

	score := s.config.SqueezeBase + durationBonus + adxBonus
	return score, fmt.Sprintf("squeeze active %d candles, duration_bonus=%.1f adx_bonus=%.1f",
		duration, durationBonus, adxBonus)
}

// performanceFactor scores live trading history once the strategy has
// enough recorded trades. Profit factor drives the base, scaled by a
// recency weight and topped with a small win-rate bonus.
func (s *Scorer) performanceFactor(input Input) (float64, string) {
	st := input.Strategy
	if st.TradeCount < s.config.MinLiveTrades {
		return 0, fmt.Sprintf("insufficient live trades (%d < %d)", st.TradeCount, s.config.MinLiveTrades)
	}

	base := clamp(-20, 20, (st.ProfitFactor-1.0)*40)
	recency := math.Min(1.2, 1.0+math.Min(float64(st.TradeCount), 50)/250.0)
	winBonus := clamp(0, 5, (st.WinRate-50)*0.1)

	score := clamp(s.config.PerformanceLo, s.config.PerformanceHi, base*recency+winBonus)
	return score, fmt.Sprintf("trades=%d pf=%.2f wr=%.1f base=%.1f recency=%.2f win_bonus=%.1f",
		st.TradeCount, st.ProfitFactor, st.WinRate, base, recency, winBonus)
}

// tier selects the conviction multiplier for a raw score. Monotonic
// non-decreasing in the raw score.
func (s *Scorer) tier(rawScore float64) float64 {
	switch {
	case rawScore >= s.config.TierHighScore:
		return 1.5
	case rawScore >= s.config.TierMidScore:
		return 1.25
	default:
		return 1.0
	}
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
