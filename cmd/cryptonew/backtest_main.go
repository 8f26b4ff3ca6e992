package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dvirmail/cryptonew-sub003/internal/backtest"
	"github.com/dvirmail/cryptonew-sub003/internal/config"
	"github.com/dvirmail/cryptonew-sub003/internal/data"
	applog "github.com/dvirmail/cryptonew-sub003/internal/log"
	"github.com/dvirmail/cryptonew-sub003/internal/metrics"
	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/signals"
)

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a signal-combination backtest over a candle series",
		Long: `Walks a historical candle series, evaluates indicator signals per
candle, enumerates qualifying signal combinations and records deduplicated
matches with their regime context. Artifacts are written as JSONL plus a
markdown report.`,
		RunE: runBacktest,
	}

	cmd.Flags().String("candles", "", "Path to candle CSV (timestamp,open,high,low,close,volume)")
	cmd.Flags().String("snapshot", "", "Path to precomputed indicator snapshot JSON")
	cmd.Flags().String("coin", "BTCUSDT", "Asset symbol for the run")
	cmd.Flags().String("timeframe", "1h", "Timeframe label for the run")
	cmd.Flags().Int("required", 0, "Minimum combination size (overrides config)")
	cmd.Flags().Int("max", 0, "Maximum combination size (overrides config)")
	cmd.Flags().Float64("min-strength", 0, "Minimum combined strength (overrides config)")
	cmd.Flags().String("output", "", "Artifact output directory (overrides config)")
	cmd.Flags().Bool("cache", false, "Cache the loaded candle series in Redis for repeated runs")
	cmd.MarkFlagRequired("candles")
	cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Backtest.Coin, _ = cmd.Flags().GetString("coin")
	cfg.Backtest.Timeframe, _ = cmd.Flags().GetString("timeframe")
	if v, _ := cmd.Flags().GetInt("required"); v > 0 {
		cfg.Backtest.RequiredSignals = v
	}
	if v, _ := cmd.Flags().GetInt("max"); v > 0 {
		cfg.Backtest.MaxSignals = v
	}
	if v, _ := cmd.Flags().GetFloat64("min-strength"); v > 0 {
		cfg.Backtest.MinCombinedStrength = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.OutputDir = v
	}

	candlesPath, _ := cmd.Flags().GetString("candles")
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	useCache, _ := cmd.Flags().GetBool("cache")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	candles, err := loadCandles(ctx, cfg, candlesPath, useCache)
	if err != nil {
		return fmt.Errorf("failed to load candles: %w", err)
	}
	snapshot, err := data.LoadSnapshotJSON(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load indicator snapshot: %w", err)
	}

	log.Info().
		Str("coin", cfg.Backtest.Coin).
		Str("timeframe", cfg.Backtest.Timeframe).
		Int("candles", len(candles)).
		Msg("starting backtest")

	signalSource := signals.NewSnapshotSource(cfg.Evaluator)
	regimeSource := snapshotRegimeSource{snapshot: snapshot}

	runner := backtest.NewRunner(cfg.Backtest, signalSource, regimeSource)
	runner.SetInstruments(metrics.NewRegistry(prometheus.NewRegistry()))

	progress := applog.NewProgressIndicator("backtest", len(candles))
	runner.SetProgress(func(p backtest.Progress) {
		progress.Update(p.CandleIndex)
	})

	results, err := runner.Run(ctx, candles, snapshot)
	if err != nil {
		return err
	}
	progress.Finish()

	writer := backtest.NewWriter(cfg.OutputDir)
	if err := writer.WriteMatches(results); err != nil {
		return err
	}
	if err := writer.WriteReport(results); err != nil {
		return err
	}

	fmt.Printf("Backtest complete: %d matches over %d candles (dominant regime: %s)\n",
		results.Summary.TotalMatches, results.TotalCandles, results.Summary.DominantRegime)
	fmt.Printf("Artifacts: %s\n", writer.GetOutputDir())
	return nil
}

// loadCandles reads the candle series, optionally through the Redis-backed
// series cache so repeated runs over the same pair skip the CSV parse.
func loadCandles(ctx context.Context, cfg *config.Config, path string, useCache bool) ([]models.Candle, error) {
	if !useCache {
		return data.LoadCandlesCSV(path)
	}

	cache := data.NewSeriesCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer cache.Close()

	if candles, ok := cache.Get(ctx, cfg.Backtest.Coin, cfg.Backtest.Timeframe); ok {
		log.Info().Str("coin", cfg.Backtest.Coin).Int("candles", len(candles)).
			Msg("candle series served from cache")
		return candles, nil
	}

	candles, err := data.LoadCandlesCSV(path)
	if err != nil {
		return nil, err
	}
	if err := cache.Put(ctx, cfg.Backtest.Coin, cfg.Backtest.Timeframe, candles); err != nil {
		log.Warn().Err(err).Msg("failed to cache candle series")
	}
	return candles, nil
}

// snapshotRegimeSource derives a coarse regime label from the snapshot's
// precomputed regime series when present, standing in for the external
// classifier service.
type snapshotRegimeSource struct {
	snapshot models.IndicatorSnapshot
}

func (s snapshotRegimeSource) GetRegime(candleIndex int) (models.RegimeState, error) {
	label, ok1 := s.snapshot.At("regime", candleIndex)
	confidence, ok2 := s.snapshot.At("regime_confidence", candleIndex)
	if !ok1 {
		return models.RegimeState{Regime: "unknown", Confidence: 0}, nil
	}
	if !ok2 {
		confidence = 0.5
	}

	regimes := []string{"unknown", "uptrend", "downtrend", "ranging"}
	idx := int(label)
	if idx < 0 || idx >= len(regimes) {
		idx = 0
	}
	return models.RegimeState{Regime: regimes[idx], Confidence: confidence}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
