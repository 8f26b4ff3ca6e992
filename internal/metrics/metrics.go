package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the backtesting and scoring
// pipeline. One Registry is shared process-wide; the per-run state it
// observes stays inside each runner.
type Registry struct {
	CandlesEvaluated *prometheus.CounterVec
	MatchesRecorded  *prometheus.CounterVec
	OverflowTotal    *prometheus.CounterVec
	SignalsPerCandle prometheus.Histogram
	ActiveRuns       prometheus.Gauge
	RunsTotal        prometheus.Counter
	ConvictionScores prometheus.Histogram
}

// NewRegistry creates the metric set and registers it with the given
// Prometheus registerer (prometheus.DefaultRegisterer in production).
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		CandlesEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_candles_evaluated_total",
				Help: "Total candles evaluated by the match recorder",
			},
			[]string{"coin"},
		),
		MatchesRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_matches_recorded_total",
				Help: "Total combination matches recorded",
			},
			[]string{"coin", "timeframe"},
		),
		OverflowTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtest_combination_overflow_total",
				Help: "Candles where combination generation hit the overflow cap",
			},
			[]string{"coin"},
		),
		SignalsPerCandle: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backtest_signals_per_candle",
				Help:    "Distribution of deduplicated signal counts per evaluated candle",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
			},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backtest_active_runs",
				Help: "Number of currently running backtests",
			},
		),
		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backtest_runs_total",
				Help: "Total backtest runs started",
			},
		),
		ConvictionScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "conviction_score",
				Help:    "Distribution of adjusted conviction scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 65, 70, 80, 90, 100},
			},
		),
	}

	reg.MustRegister(
		r.CandlesEvaluated,
		r.MatchesRecorded,
		r.OverflowTotal,
		r.SignalsPerCandle,
		r.ActiveRuns,
		r.RunsTotal,
		r.ConvictionScores,
	)

	return r
}

// RunStarted marks a run as active.
func (r *Registry) RunStarted() {
	r.ActiveRuns.Inc()
	r.RunsTotal.Inc()
}

// RunEnded marks a run as finished.
func (r *Registry) RunEnded() {
	r.ActiveRuns.Dec()
}

// SignalsEvaluated records one evaluated candle and its signal count.
func (r *Registry) SignalsEvaluated(coin string, signalCount int) {
	r.CandlesEvaluated.WithLabelValues(coin).Inc()
	r.SignalsPerCandle.Observe(float64(signalCount))
}

// MatchRecorded counts one recorded match.
func (r *Registry) MatchRecorded(coin, timeframe string) {
	r.MatchesRecorded.WithLabelValues(coin, timeframe).Inc()
}

// OverflowTruncated counts one overflow-truncated candle.
func (r *Registry) OverflowTruncated(coin string) {
	r.OverflowTotal.WithLabelValues(coin).Inc()
}

// ScoreObserved records one conviction evaluation result.
func (r *Registry) ScoreObserved(score float64) {
	r.ConvictionScores.Observe(score)
}
