package backtest

import (
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/combo"
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Config represents one backtest run's configuration.
type Config struct {
	Coin      string `yaml:"coin"`
	Timeframe string `yaml:"timeframe"`

	// Combination constraints, passed through to the generator.
	RequiredSignals     int     `yaml:"required_signals"`      // Default: 2
	MaxSignals          int     `yaml:"max_signals"`           // Default: 4
	MinCombinedStrength float64 `yaml:"min_combined_strength"` // Default: 120

	// WarmupBars is the first candle index evaluated; indicators need
	// history before their values mean anything.
	WarmupBars int `yaml:"warmup_bars"` // Default: 50

	// ProgressEvery controls how often (in candles) the progress callback
	// fires. Zero disables it.
	ProgressEvery int `yaml:"progress_every"` // Default: 500
}

// DefaultConfig returns the standard run configuration.
func DefaultConfig() Config {
	return Config{
		RequiredSignals:     2,
		MaxSignals:          4,
		MinCombinedStrength: 120,
		WarmupBars:          50,
		ProgressEvery:       500,
	}
}

// GeneratorConfig projects the run config onto the combination generator.
func (c Config) GeneratorConfig() combo.GeneratorConfig {
	return combo.GeneratorConfig{
		RequiredSignals:     c.RequiredSignals,
		MaxSignals:          c.MaxSignals,
		MinCombinedStrength: c.MinCombinedStrength,
	}
}

// State is the runner lifecycle. A runner is single-use: Completed and
// Failed are terminal, a fresh runner is required per run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is handed to the run's progress callback. It is a side effect
// only; the loop does not yield or wait on the callback.
type Progress struct {
	CandleIndex  int
	TotalCandles int
	Matches      int
}

// ProgressFunc receives periodic progress updates during a run.
type ProgressFunc func(Progress)

// RunResults is the complete output of one walk-forward run.
type RunResults struct {
	Coin      string    `json:"coin"`
	Timeframe string    `json:"timeframe"`
	Config    Config    `json:"config"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	TotalCandles     int `json:"total_candles"`
	EvaluatedCandles int `json:"evaluated_candles"`
	SkippedCandles   int `json:"skipped_candles"` // Eval failures only

	Matches []models.Match `json:"matches"`
	Summary *Summary       `json:"summary"`
}

// Summary carries the aggregate counters accumulated during a run.
type Summary struct {
	TotalMatches    int            `json:"total_matches"`
	SignalCounts    map[string]int `json:"signal_counts"`    // Per signal type
	SignatureCounts map[string]int `json:"signature_counts"` // Per combination signature
	EvalErrors      int            `json:"eval_errors"`
	OverflowCandles int            `json:"overflow_candles"`

	DominantRegime     string             `json:"dominant_regime"`
	DominantShare      float64            `json:"dominant_share"`
	RegimeTransitions  int                `json:"regime_transitions"`
	RegimeDistribution map[string]float64 `json:"regime_distribution"`
}
