package signals

import (
	"fmt"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// MockSignalSource replays a fixed per-candle signal script. Used by tests
// and by the deterministic demo mode of the CLI.
type MockSignalSource struct {
	// Script maps candle index to the signals active there.
	Script map[int][]models.Signal

	// FailAt contains candle indices where evaluation should fail, to test
	// the loop's skip-and-continue behavior.
	FailAt map[int]bool

	calls int
}

// NewMockSignalSource creates an empty scripted source.
func NewMockSignalSource() *MockSignalSource {
	return &MockSignalSource{
		Script: make(map[int][]models.Signal),
		FailAt: make(map[int]bool),
	}
}

// On registers the signals active at a candle index.
func (m *MockSignalSource) On(index int, sigs ...models.Signal) *MockSignalSource {
	m.Script[index] = sigs
	return m
}

// GetSignals returns the scripted signals for the candle index.
func (m *MockSignalSource) GetSignals(_ models.Candle, _ models.IndicatorSnapshot, candleIndex int, _ string) ([]models.Signal, error) {
	m.calls++
	if m.FailAt[candleIndex] {
		return nil, fmt.Errorf("scripted evaluation failure at candle %d", candleIndex)
	}
	return m.Script[candleIndex], nil
}

// Calls returns how many times the source was queried.
func (m *MockSignalSource) Calls() int {
	return m.calls
}

// MockRegimeSource returns a fixed regime, a scripted per-candle override,
// or a scripted failure.
type MockRegimeSource struct {
	Default  models.RegimeState
	Override map[int]models.RegimeState
	FailAt   map[int]bool
}

// NewMockRegimeSource creates a source that always answers with the given
// regime state.
func NewMockRegimeSource(state models.RegimeState) *MockRegimeSource {
	return &MockRegimeSource{
		Default:  state,
		Override: make(map[int]models.RegimeState),
		FailAt:   make(map[int]bool),
	}
}

// GetRegime returns the scripted regime for the candle index.
func (m *MockRegimeSource) GetRegime(candleIndex int) (models.RegimeState, error) {
	if m.FailAt[candleIndex] {
		return models.RegimeState{}, fmt.Errorf("scripted regime failure at candle %d", candleIndex)
	}
	if state, ok := m.Override[candleIndex]; ok {
		return state, nil
	}
	return m.Default, nil
}
