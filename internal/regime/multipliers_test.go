package regime

import (
	"math"
	"testing"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

func TestStrategyMultiplier_PerfectAlignment(t *testing.T) {
	for _, r := range []Regime{Uptrend, Downtrend, Ranging, Unknown} {
		if got := StrategyMultiplier(r, r, 1.0); got != 1.25 {
			t.Errorf("StrategyMultiplier(%s, %s, 1.0) = %.3f, want 1.25", r, r, got)
		}
	}
}

func TestStrategyMultiplier_ZeroConfidenceIsNeutral(t *testing.T) {
	regimes := []Regime{Uptrend, Downtrend, Ranging, Unknown}
	for _, current := range regimes {
		for _, dominant := range regimes {
			if got := StrategyMultiplier(current, dominant, 0); got != 1.0 {
				t.Errorf("StrategyMultiplier(%s, %s, 0) = %.3f, want 1.0", current, dominant, got)
			}
		}
	}
}

func TestStrategyMultiplier_PartialCompatibility(t *testing.T) {
	cases := []struct {
		current, dominant Regime
	}{
		{Ranging, Uptrend},
		{Ranging, Downtrend},
		{Uptrend, Ranging},
		{Downtrend, Ranging},
	}
	for _, tc := range cases {
		got := StrategyMultiplier(tc.current, tc.dominant, 1.0)
		if math.Abs(got-1.1) > 1e-9 {
			t.Errorf("StrategyMultiplier(%s, %s, 1.0) = %.3f, want 1.1", tc.current, tc.dominant, got)
		}
	}
}

func TestStrategyMultiplier_Mismatch(t *testing.T) {
	got := StrategyMultiplier(Uptrend, Downtrend, 1.0)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("opposing trends should use the mismatch base, got %.3f", got)
	}
}

func TestStrategyMultiplier_ConfidenceScalesTowardNeutral(t *testing.T) {
	// Halfway confidence lands halfway between neutral and the base.
	got := StrategyMultiplier(Uptrend, Uptrend, 0.5)
	if math.Abs(got-1.125) > 1e-9 {
		t.Errorf("StrategyMultiplier at confidence 0.5 = %.4f, want 1.125", got)
	}

	got = StrategyMultiplier(Uptrend, Downtrend, 0.5)
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("mismatch at confidence 0.5 = %.4f, want 0.9", got)
	}
}

func TestStrategyMultiplier_ConfidenceClamped(t *testing.T) {
	if got := StrategyMultiplier(Uptrend, Uptrend, 2.5); got != 1.25 {
		t.Errorf("confidence above 1 should clamp, got %.3f", got)
	}
	if got := StrategyMultiplier(Uptrend, Uptrend, -1); got != 1.0 {
		t.Errorf("negative confidence should clamp to neutral, got %.3f", got)
	}
}

func TestSignalMultiplier_UnknownTypeIsNeutral(t *testing.T) {
	if got := SignalMultiplier(Uptrend, "NotAnIndicator", models.Bullish); got != 1.0 {
		t.Errorf("unmatched signal type should return 1.0, got %.2f", got)
	}
}

func TestSignalMultiplier_UnknownRegimeIsNeutral(t *testing.T) {
	if got := SignalMultiplier(Unknown, "RSI", models.Bullish); got != 1.0 {
		t.Errorf("unknown regime should return 1.0, got %.2f", got)
	}
}

func TestSignalMultiplier_TrendAlignment(t *testing.T) {
	withTrend := SignalMultiplier(Uptrend, "MACD", models.Bullish)
	against := SignalMultiplier(Uptrend, "MACD", models.Bearish)
	if withTrend <= 1.0 {
		t.Errorf("trend-following with the trend should be boosted, got %.2f", withTrend)
	}
	if against >= 1.0 {
		t.Errorf("trend-following against the trend should be dampened, got %.2f", against)
	}
}

func TestSignalMultiplier_RangingBoostsMeanReversion(t *testing.T) {
	mr := SignalMultiplier(Ranging, "RSI", models.Bullish)
	tf := SignalMultiplier(Ranging, "MACD", models.Bullish)
	if mr <= 1.0 {
		t.Errorf("mean reversion should be boosted in ranging markets, got %.2f", mr)
	}
	if tf >= 1.0 {
		t.Errorf("trend entries should be dampened in ranging markets, got %.2f", tf)
	}
}

func TestParse_Labels(t *testing.T) {
	cases := map[string]Regime{
		"uptrend":   Uptrend,
		"bull":      Uptrend,
		"downtrend": Downtrend,
		"ranging":   Ranging,
		"sideways":  Ranging,
		"garbage":   Unknown,
		"":          Unknown,
	}
	for label, want := range cases {
		if got := Parse(label); got != want {
			t.Errorf("Parse(%q) = %s, want %s", label, got, want)
		}
	}
}
