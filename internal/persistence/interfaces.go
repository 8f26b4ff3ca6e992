package persistence

import (
	"context"
	"time"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// LivePerformance is the incremental live-trading update applied to a
// stored strategy after outcome labeling.
type LivePerformance struct {
	TradeCount   int     `json:"trade_count"`
	ProfitFactor float64 `json:"profit_factor"`
	WinRate      float64 `json:"win_rate"` // Percent, 0-100
}

// StrategyRepo persists discovered strategies and their live-performance
// counters. The conviction scorer only reads strategies; all writes come
// from the discovery and labeling pipelines.
type StrategyRepo interface {
	// Upsert inserts or updates a strategy keyed by (coin, timeframe,
	// signature).
	Upsert(ctx context.Context, strategy models.Strategy) error

	// GetByID retrieves one strategy.
	GetByID(ctx context.Context, id string) (*models.Strategy, error)

	// List returns strategies for a coin/timeframe pair, newest first.
	List(ctx context.Context, coin, timeframe string, limit int) ([]models.Strategy, error)

	// ListByDominantRegime returns strategies whose historical dominant
	// regime matches the label, for regime-aligned candidate selection.
	ListByDominantRegime(ctx context.Context, regime string, limit int) ([]models.Strategy, error)

	// UpdatePerformance applies refreshed live counters to a strategy.
	UpdatePerformance(ctx context.Context, id string, perf LivePerformance) error

	// Delete removes a strategy.
	Delete(ctx context.Context, id string) error
}

// Validate rejects strategies that cannot be meaningfully persisted.
func Validate(s models.Strategy) error {
	switch {
	case s.Coin == "":
		return ErrMissingCoin
	case s.Timeframe == "":
		return ErrMissingTimeframe
	case s.Signature == "":
		return ErrMissingSignature
	case s.WinRate < 0 || s.WinRate > 100:
		return ErrWinRateRange
	case s.TradeCount < 0:
		return ErrNegativeTrades
	}
	return nil
}

// Validation errors.
var (
	ErrMissingCoin      = validationError("strategy coin is required")
	ErrMissingTimeframe = validationError("strategy timeframe is required")
	ErrMissingSignature = validationError("strategy signature is required")
	ErrWinRateRange     = validationError("win rate must be within [0,100]")
	ErrNegativeTrades   = validationError("trade count cannot be negative")
)

type validationError string

func (e validationError) Error() string { return string(e) }

// Touch stamps the update time, and the creation time when unset.
func Touch(s *models.Strategy, now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
