package persistence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// BreakerRepo wraps a StrategyRepo with a circuit breaker so a flapping
// database degrades live conviction scoring to empty reads instead of
// stalling every request on connection timeouts. Writes pass through the
// breaker too; the discovery pipeline retries them on its own schedule.
type BreakerRepo struct {
	inner   StrategyRepo
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerRepo wraps a repository with the standard breaker settings:
// trip after 5 consecutive failures, probe again after 30 seconds.
func NewBreakerRepo(inner StrategyRepo) *BreakerRepo {
	settings := gobreaker.Settings{
		Name:        "strategy-store",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("strategy store breaker state change")
		},
	}

	return &BreakerRepo{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerRepo) Upsert(ctx context.Context, strategy models.Strategy) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.Upsert(ctx, strategy)
	})
	return err
}

func (b *BreakerRepo) GetByID(ctx context.Context, id string) (*models.Strategy, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Strategy), nil
}

func (b *BreakerRepo) List(ctx context.Context, coin, timeframe string, limit int) ([]models.Strategy, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.List(ctx, coin, timeframe, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Strategy), nil
}

func (b *BreakerRepo) ListByDominantRegime(ctx context.Context, regime string, limit int) ([]models.Strategy, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.ListByDominantRegime(ctx, regime, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Strategy), nil
}

func (b *BreakerRepo) UpdatePerformance(ctx context.Context, id string, perf LivePerformance) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.UpdatePerformance(ctx, id, perf)
	})
	return err
}

func (b *BreakerRepo) Delete(ctx context.Context, id string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.Delete(ctx, id)
	})
	return err
}

// State exposes the current breaker state for health reporting.
func (b *BreakerRepo) State() gobreaker.State {
	return b.breaker.State()
}
