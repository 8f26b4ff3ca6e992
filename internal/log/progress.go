package log

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ProgressIndicator provides periodic feedback for long-running candle
// loops. It is driven by the backtest runner's progress callback and logs
// at most once per interval regardless of callback frequency.
type ProgressIndicator struct {
	mu          sync.Mutex
	name        string
	total       int
	current     int
	startTime   time.Time
	lastLog     time.Time
	minInterval time.Duration
}

// NewProgressIndicator creates a progress indicator for an operation with a
// known total.
func NewProgressIndicator(name string, total int) *ProgressIndicator {
	return &ProgressIndicator{
		name:        name,
		total:       total,
		startTime:   time.Now(),
		minInterval: 2 * time.Second,
	}
}

// Update advances progress to the given position and logs when due.
func (pi *ProgressIndicator) Update(current int) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	pi.current = current
	now := time.Now()
	if now.Sub(pi.lastLog) < pi.minInterval {
		return
	}
	pi.lastLog = now

	pct := 0.0
	if pi.total > 0 {
		pct = float64(current) / float64(pi.total) * 100
	}

	log.Info().
		Str("op", pi.name).
		Int("current", current).
		Int("total", pi.total).
		Float64("pct", pct).
		Str("eta", pi.eta(current).Round(time.Second).String()).
		Msg("progress")
}

// Finish logs the final timing for the operation.
func (pi *ProgressIndicator) Finish() {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	log.Info().
		Str("op", pi.name).
		Int("total", pi.total).
		Dur("elapsed", time.Since(pi.startTime)).
		Msg("completed")
}

// eta estimates remaining time from the observed rate so far.
func (pi *ProgressIndicator) eta(current int) time.Duration {
	if current <= 0 || pi.total <= 0 {
		return 0
	}
	elapsed := time.Since(pi.startTime)
	perUnit := elapsed / time.Duration(current)
	return perUnit * time.Duration(pi.total-current)
}
