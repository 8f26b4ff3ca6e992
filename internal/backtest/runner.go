package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/combo"
	"github.com/dvirmail/cryptonew-sub003/internal/metrics"
	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/regime"
	"github.com/dvirmail/cryptonew-sub003/internal/signals"
)

// maxLoggedEvalErrors caps per-run signal evaluation error logging so one
// systematically broken evaluator cannot flood the log across thousands of
// candles. Errors past the cap are still counted.
const maxLoggedEvalErrors = 5

// Clock interface for time operations (injectable for testing)
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using real time
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Runner walks one candle series and records combination matches. Each
// runner owns private mutable state (match list, counters, last-match
// index map, regime tracker) and is safe to run in parallel with other
// runners as long as the injected sources are per-run too.
type Runner struct {
	config       Config
	signalSource signals.SignalSource
	regimeSource signals.RegimeSource
	tracker      *regime.Tracker
	run          *runMetrics
	instruments  *metrics.Registry
	onProgress   ProgressFunc
	clock        Clock
	state        State
}

// NewRunner creates a runner for one (coin, timeframe) backtest run.
func NewRunner(config Config, signalSource signals.SignalSource, regimeSource signals.RegimeSource) *Runner {
	return &Runner{
		config:       config,
		signalSource: signalSource,
		regimeSource: regimeSource,
		tracker:      regime.NewTracker(),
		run:          newRunMetrics(),
		clock:        RealClock{},
	}
}

// SetProgress installs the progress callback, invoked every
// Config.ProgressEvery candles.
func (r *Runner) SetProgress(fn ProgressFunc) { r.onProgress = fn }

// SetInstruments attaches a Prometheus registry; nil leaves the runner
// uninstrumented.
func (r *Runner) SetInstruments(reg *metrics.Registry) { r.instruments = reg }

// SetClock sets the clock implementation (for testing)
func (r *Runner) SetClock(clock Clock) { r.clock = clock }

// State returns the runner's lifecycle state.
func (r *Runner) State() State { return r.state }

// Tracker exposes the per-run regime tracker, primarily so callers can
// derive a strategy's dominant regime after the run.
func (r *Runner) Tracker() *regime.Tracker { return r.tracker }

// Run executes the walk-forward loop over the candle series. An empty
// series is not an error: the run completes immediately with an empty
// result. Per-candle failures degrade gracefully; the only way the loop
// stops early is caller cancellation through ctx.
func (r *Runner) Run(ctx context.Context, candles []models.Candle, snapshot models.IndicatorSnapshot) (*RunResults, error) {
	if r.state != StateIdle {
		return nil, fmt.Errorf("runner is not reentrant: state is %s, create a fresh runner per run", r.state)
	}
	r.state = StateRunning

	results := &RunResults{
		Coin:         r.config.Coin,
		Timeframe:    r.config.Timeframe,
		Config:       r.config,
		StartedAt:    r.clock.Now(),
		TotalCandles: len(candles),
		Matches:      make([]models.Match, 0),
	}

	if len(candles) == 0 {
		log.Warn().Str("coin", r.config.Coin).Str("timeframe", r.config.Timeframe).
			Msg("backtest invoked with empty candle series")
		r.finish(results)
		return results, nil
	}

	if r.instruments != nil {
		r.instruments.RunStarted()
		defer r.instruments.RunEnded()
	}

	genCfg := r.config.GeneratorConfig()
	lastMatchIndex := make(map[string]int)
	loggedErrors := 0

	// Walk from warmup to the second-to-last candle; the final candle has
	// no forward bar for the caller's outcome labeling.
	for i := r.config.WarmupBars; i <= len(candles)-2; i++ {
		if err := ctx.Err(); err != nil {
			r.state = StateFailed
			return nil, fmt.Errorf("backtest canceled at candle %d: %w", i, err)
		}

		// Progress reports loop position, so it fires for every candle
		// walked, including ones skipped further down.
		if r.onProgress != nil && r.config.ProgressEvery > 0 && (i-r.config.WarmupBars+1)%r.config.ProgressEvery == 0 {
			r.onProgress(Progress{
				CandleIndex:  i,
				TotalCandles: len(candles),
				Matches:      len(results.Matches),
			})
		}

		regimeState := r.observeRegime(i)

		sigs, err := r.signalSource.GetSignals(candles[i], snapshot, i, regimeState.Regime)
		if err != nil {
			results.SkippedCandles++
			r.run.recordEvalError()
			if loggedErrors < maxLoggedEvalErrors {
				loggedErrors++
				log.Warn().Err(err).Int("candle", i).Str("coin", r.config.Coin).
					Msg("signal evaluation failed, skipping candle")
			}
			continue
		}
		results.EvaluatedCandles++

		reduced := signals.ReduceStrongestPerType(sigs)
		r.run.recordSignals(reduced)
		if r.instruments != nil {
			r.instruments.SignalsEvaluated(r.config.Coin, len(reduced))
		}

		if len(reduced) < r.config.RequiredSignals {
			continue
		}

		candidates, truncated := combo.Generate(reduced, genCfg, combo.CandleContext{
			Index:     i,
			Candle:    candles[i],
			Coin:      r.config.Coin,
			Timeframe: r.config.Timeframe,
			Regime:    regimeState,
		})
		if truncated {
			r.run.recordOverflow()
			if r.instruments != nil {
				r.instruments.OverflowTruncated(r.config.Coin)
			}
		}

		for _, c := range combo.FilterSubsets(candidates) {
			last, seen := lastMatchIndex[c.Signature]

			// A signature firing on consecutive candles is one ongoing
			// occurrence, not repeated matches.
			if !seen || i > last+1 {
				results.Matches = append(results.Matches, models.Match{Combination: c})
				r.run.recordMatch(c)
				if r.instruments != nil {
					r.instruments.MatchRecorded(r.config.Coin, r.config.Timeframe)
				}
			}
			lastMatchIndex[c.Signature] = i
		}
	}

	r.finish(results)
	log.Info().
		Str("coin", r.config.Coin).
		Str("timeframe", r.config.Timeframe).
		Int("candles", results.TotalCandles).
		Int("matches", len(results.Matches)).
		Str("dominant_regime", results.Summary.DominantRegime).
		Msg("backtest run completed")

	return results, nil
}

// observeRegime queries the regime source for one candle, defaulting to
// unknown/0 on failure, and feeds the per-run tracker.
func (r *Runner) observeRegime(candleIndex int) models.RegimeState {
	state, err := r.regimeSource.GetRegime(candleIndex)
	if err != nil {
		state = regime.UnknownState()
	}
	r.tracker.Observe(state)
	return state
}

// finish seals the run: summary counters are computed once and the runner
// transitions to its terminal state.
func (r *Runner) finish(results *RunResults) {
	results.EndedAt = r.clock.Now()
	results.Summary = r.run.summarize(r.tracker)
	results.Summary.TotalMatches = len(results.Matches)
	r.state = StateCompleted
}
