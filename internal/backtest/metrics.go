package backtest

import (
	"sync"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
	"github.com/dvirmail/cryptonew-sub003/internal/regime"
)

// runMetrics collects per-run counters while the loop walks the series.
// The loop itself is single-threaded; the mutex only guards against a
// progress callback reading counters concurrently.
type runMetrics struct {
	mu sync.RWMutex

	signalCounts    map[string]int
	signatureCounts map[string]int
	evalErrors      int
	overflowCandles int
}

func newRunMetrics() *runMetrics {
	return &runMetrics{
		signalCounts:    make(map[string]int),
		signatureCounts: make(map[string]int),
	}
}

func (m *runMetrics) recordSignals(sigs []models.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sig := range sigs {
		m.signalCounts[sig.Type]++
	}
}

func (m *runMetrics) recordMatch(c models.Combination) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signatureCounts[c.Signature]++
}

func (m *runMetrics) recordEvalError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evalErrors++
}

func (m *runMetrics) recordOverflow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overflowCandles++
}

// summarize builds the final Summary from the accumulated counters and the
// run's regime tracker.
func (m *runMetrics) summarize(tracker *regime.Tracker) *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	signalCounts := make(map[string]int, len(m.signalCounts))
	for k, v := range m.signalCounts {
		signalCounts[k] = v
	}
	signatureCounts := make(map[string]int, len(m.signatureCounts))
	for k, v := range m.signatureCounts {
		signatureCounts[k] = v
	}

	dominant, share := tracker.Dominant()

	return &Summary{
		SignalCounts:       signalCounts,
		SignatureCounts:    signatureCounts,
		EvalErrors:         m.evalErrors,
		OverflowCandles:    m.overflowCandles,
		DominantRegime:     dominant.String(),
		DominantShare:      share,
		RegimeTransitions:  tracker.Transitions(),
		RegimeDistribution: tracker.Distribution(),
	}
}
