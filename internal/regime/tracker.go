package regime

import (
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Tracker accumulates per-run regime statistics while the backtest loop
// walks the candle series. One Tracker belongs to exactly one run and is
// created alongside it; runs for different (coin, timeframe) pairs must not
// share a Tracker.
type Tracker struct {
	counts        map[Regime]int
	confidenceSum map[Regime]float64
	transitions   int
	last          Regime
	observed      int
}

// NewTracker creates an empty per-run regime tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counts:        make(map[Regime]int),
		confidenceSum: make(map[Regime]float64),
		last:          Unknown,
	}
}

// Observe records one candle's regime snapshot.
func (t *Tracker) Observe(state models.RegimeState) {
	r := Parse(state.Regime)

	t.counts[r]++
	t.confidenceSum[r] += state.Confidence

	if t.observed > 0 && r != t.last {
		t.transitions++
	}
	t.last = r
	t.observed++
}

// Observations returns the number of candles observed so far.
func (t *Tracker) Observations() int {
	return t.observed
}

// Transitions returns how many times the regime label changed between
// consecutive observed candles.
func (t *Tracker) Transitions() int {
	return t.transitions
}

// Dominant returns the regime seen most often during the run and the share
// of candles it covered. Ties resolve to the regime with the higher summed
// confidence; with no observations it returns Unknown with share 0.
func (t *Tracker) Dominant() (Regime, float64) {
	if t.observed == 0 {
		return Unknown, 0
	}

	best := Unknown
	bestCount := -1
	for _, r := range []Regime{Uptrend, Downtrend, Ranging, Unknown} {
		count := t.counts[r]
		if count > bestCount || (count == bestCount && t.confidenceSum[r] > t.confidenceSum[best]) {
			best = r
			bestCount = count
		}
	}

	return best, float64(bestCount) / float64(t.observed)
}

// Distribution returns the share of observed candles per regime label.
func (t *Tracker) Distribution() map[string]float64 {
	dist := make(map[string]float64, len(t.counts))
	if t.observed == 0 {
		return dist
	}
	for r, count := range t.counts {
		dist[r.String()] = float64(count) / float64(t.observed)
	}
	return dist
}

// AverageConfidence returns the mean classifier confidence for a regime
// across the run, or 0 when it was never observed.
func (t *Tracker) AverageConfidence(r Regime) float64 {
	count := t.counts[r]
	if count == 0 {
		return 0
	}
	return t.confidenceSum[r] / float64(count)
}
