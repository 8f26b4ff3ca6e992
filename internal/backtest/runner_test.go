package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/combo"
	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/signals"
)

// fakeClock returns a fixed time for deterministic run timestamps.
type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

func testCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    1000,
		}
	}
	return candles
}

func testRunConfig() Config {
	cfg := DefaultConfig()
	cfg.Coin = "BTC"
	cfg.Timeframe = "1h"
	cfg.WarmupBars = 5
	cfg.MinCombinedStrength = 100
	cfg.ProgressEvery = 0
	return cfg
}

func pairAt(src *signals.MockSignalSource, index int) {
	src.On(index,
		models.Signal{Type: "RSI", Value: "Oversold Entry", Strength: 70, Direction: models.Bullish},
		models.Signal{Type: "MACD", Value: "Bullish Cross", Strength: 80, Direction: models.Bullish},
	)
}

func TestRun_NonConsecutiveDedup(t *testing.T) {
	src := signals.NewMockSignalSource()
	pairAt(src, 10)
	pairAt(src, 11)
	pairAt(src, 15)

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(30), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) != 2 {
		t.Fatalf("expected 2 matches after dedup, got %d", len(results.Matches))
	}
	if results.Matches[0].CandleIndex != 10 || results.Matches[1].CandleIndex != 15 {
		t.Errorf("expected matches at candles 10 and 15, got %d and %d",
			results.Matches[0].CandleIndex, results.Matches[1].CandleIndex)
	}
}

func TestRun_ConsecutiveRunExtendsOccurrence(t *testing.T) {
	// Firing on 10..13 then again on 14 is still one occurrence: each
	// candle extends the streak even though only candle 10 was recorded.
	src := signals.NewMockSignalSource()
	for i := 10; i <= 14; i++ {
		pairAt(src, i)
	}

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(30), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) != 1 {
		t.Fatalf("expected 1 match for a consecutive streak, got %d", len(results.Matches))
	}
	if results.Matches[0].CandleIndex != 10 {
		t.Errorf("expected the streak's first candle 10, got %d", results.Matches[0].CandleIndex)
	}
}

func TestRun_EmptySeriesCompletes(t *testing.T) {
	runner := NewRunner(testRunConfig(), signals.NewMockSignalSource(),
		signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))

	results, err := runner.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("empty series should not fail: %v", err)
	}
	if len(results.Matches) != 0 || results.TotalCandles != 0 {
		t.Errorf("expected empty results, got %d matches over %d candles",
			len(results.Matches), results.TotalCandles)
	}
	if runner.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", runner.State())
	}
}

func TestRun_EvalErrorSkipsCandle(t *testing.T) {
	src := signals.NewMockSignalSource()
	pairAt(src, 10)
	src.FailAt[11] = true
	pairAt(src, 12)

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(20), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if results.SkippedCandles != 1 {
		t.Errorf("expected 1 skipped candle, got %d", results.SkippedCandles)
	}
	if results.Summary.EvalErrors != 1 {
		t.Errorf("expected 1 eval error in summary, got %d", results.Summary.EvalErrors)
	}
	// The failing candle broke the consecutive streak, so 12 records again.
	if len(results.Matches) != 2 {
		t.Errorf("expected matches at 10 and 12, got %d matches", len(results.Matches))
	}
}

func TestRun_BelowRequiredSignalsSkips(t *testing.T) {
	src := signals.NewMockSignalSource()
	src.On(10, models.Signal{Type: "RSI", Value: "Oversold Entry", Strength: 95, Direction: models.Bullish})

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(20), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) != 0 {
		t.Errorf("one signal is below the required minimum, got %d matches", len(results.Matches))
	}
	if results.EvaluatedCandles == 0 {
		t.Error("candle should count as evaluated even when below the signal minimum")
	}
}

func TestRun_RegimeFailureDefaultsUnknown(t *testing.T) {
	regimeSrc := signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8})
	regimeSrc.FailAt[10] = true

	src := signals.NewMockSignalSource()
	pairAt(src, 10)

	runner := NewRunner(testRunConfig(), src, regimeSrc)
	results, err := runner.Run(context.Background(), testCandles(20), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) != 1 {
		t.Fatalf("regime failure must not drop the candle, got %d matches", len(results.Matches))
	}
	if results.Matches[0].MarketRegime != "unknown" || results.Matches[0].RegimeConfidence != 0 {
		t.Errorf("expected unknown/0 regime on classifier failure, got %s/%.2f",
			results.Matches[0].MarketRegime, results.Matches[0].RegimeConfidence)
	}
	if runner.Tracker().Distribution()["unknown"] == 0 {
		t.Error("tracker should have observed the unknown fallback")
	}
}

func TestRun_NotReentrant(t *testing.T) {
	runner := NewRunner(testRunConfig(), signals.NewMockSignalSource(),
		signals.NewMockRegimeSource(models.RegimeState{Regime: "ranging", Confidence: 0.5}))

	if _, err := runner.Run(context.Background(), testCandles(10), nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := runner.Run(context.Background(), testCandles(10), nil); err == nil {
		t.Fatal("second run on the same runner should fail")
	}
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(testRunConfig(), signals.NewMockSignalSource(),
		signals.NewMockRegimeSource(models.RegimeState{Regime: "ranging", Confidence: 0.5}))

	if _, err := runner.Run(ctx, testCandles(20), nil); err == nil {
		t.Fatal("canceled context should abort the run with an error")
	}
	if runner.State() != StateFailed {
		t.Errorf("expected failed state after cancellation, got %s", runner.State())
	}
}

func TestRun_SkipsWarmupAndFinalCandle(t *testing.T) {
	src := signals.NewMockSignalSource()
	pairAt(src, 4)  // inside warmup
	pairAt(src, 19) // final candle, no forward bar

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(20), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) != 0 {
		t.Errorf("warmup and final candles must not be evaluated, got %d matches", len(results.Matches))
	}
}

func TestRun_PerCandleMatchCap(t *testing.T) {
	// Eight distinct max-strength signals with sizes 1..8 allowed saturate
	// the per-candle generation cap; the filter then removes subsets, so
	// recorded matches can never exceed the cap.
	types := []string{"RSI", "MACD", "Stochastic", "ADX", "Bollinger", "Squeeze", "OBV", "CCI"}
	sigs := make([]models.Signal, len(types))
	for i, typ := range types {
		sigs[i] = models.Signal{Type: typ, Value: "Active", Strength: 100, Direction: models.Bullish}
	}

	cfg := testRunConfig()
	cfg.RequiredSignals = 1
	cfg.MaxSignals = 8
	cfg.MinCombinedStrength = 0

	src := signals.NewMockSignalSource().On(10, sigs...)
	runner := NewRunner(cfg, src, signals.NewMockRegimeSource(models.RegimeState{Regime: "uptrend", Confidence: 0.8}))
	results, err := runner.Run(context.Background(), testCandles(20), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(results.Matches) > combo.MaxPerCandle {
		t.Errorf("matches %d exceed the per-candle cap %d", len(results.Matches), combo.MaxPerCandle)
	}
	if results.Summary.OverflowCandles != 1 {
		t.Errorf("expected 1 overflow candle in summary, got %d", results.Summary.OverflowCandles)
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	cfg := testRunConfig()
	cfg.ProgressEvery = 3

	// No candle yields enough signals and candle 8 errors outright, so
	// every iteration skips early. Progress still tracks the walk.
	src := signals.NewMockSignalSource()
	src.FailAt[8] = true

	var updates []Progress
	runner := NewRunner(cfg, src,
		signals.NewMockRegimeSource(models.RegimeState{Regime: "ranging", Confidence: 0.5}))
	runner.SetProgress(func(p Progress) { updates = append(updates, p) })

	// Candles 5..13 are walked: nine iterations, three callbacks.
	if _, err := runner.Run(context.Background(), testCandles(15), nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 progress updates, got %d", len(updates))
	}
	if updates[0].CandleIndex != 7 || updates[2].CandleIndex != 13 {
		t.Errorf("unexpected progress indices: first %d last %d",
			updates[0].CandleIndex, updates[2].CandleIndex)
	}
}

func TestRun_SummaryCounters(t *testing.T) {
	src := signals.NewMockSignalSource()
	pairAt(src, 10)
	pairAt(src, 15)

	runner := NewRunner(testRunConfig(), src, signals.NewMockRegimeSource(models.RegimeState{Regime: "downtrend", Confidence: 0.7}))
	runner.SetClock(fakeClock{now: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)})

	results, err := runner.Run(context.Background(), testCandles(30), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	summary := results.Summary
	if summary.TotalMatches != len(results.Matches) {
		t.Errorf("summary total %d disagrees with match list %d", summary.TotalMatches, len(results.Matches))
	}
	if summary.SignalCounts["RSI"] != 2 || summary.SignalCounts["MACD"] != 2 {
		t.Errorf("unexpected signal counts: %v", summary.SignalCounts)
	}
	if summary.SignatureCounts["MACD + RSI"] != 2 {
		t.Errorf("unexpected signature counts: %v", summary.SignatureCounts)
	}
	if summary.DominantRegime != "downtrend" || summary.DominantShare != 1.0 {
		t.Errorf("expected downtrend/1.0 dominant, got %s/%.2f", summary.DominantRegime, summary.DominantShare)
	}
	if !results.StartedAt.Equal(results.EndedAt) {
		t.Error("fake clock should pin start and end timestamps")
	}
}
