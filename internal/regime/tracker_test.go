package regime

import (
	"math"
	"testing"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

func TestTracker_Dominant(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < 6; i++ {
		tracker.Observe(models.RegimeState{Regime: "uptrend", Confidence: 0.8})
	}
	for i := 0; i < 4; i++ {
		tracker.Observe(models.RegimeState{Regime: "ranging", Confidence: 0.6})
	}

	if got := tracker.Observations(); got != 10 {
		t.Errorf("expected 10 observations, got %d", got)
	}

	dominant, share := tracker.Dominant()
	if dominant != Uptrend {
		t.Errorf("expected uptrend dominant, got %s", dominant)
	}
	if math.Abs(share-0.6) > 1e-9 {
		t.Errorf("expected dominant share 0.6, got %.3f", share)
	}
}

func TestTracker_EmptyIsUnknown(t *testing.T) {
	dominant, share := NewTracker().Dominant()
	if dominant != Unknown || share != 0 {
		t.Errorf("empty tracker should report unknown/0, got %s/%.2f", dominant, share)
	}
}

func TestTracker_Transitions(t *testing.T) {
	tracker := NewTracker()
	sequence := []string{"uptrend", "uptrend", "ranging", "ranging", "uptrend", "downtrend"}
	for _, label := range sequence {
		tracker.Observe(models.RegimeState{Regime: label, Confidence: 0.5})
	}

	if got := tracker.Transitions(); got != 3 {
		t.Errorf("expected 3 transitions, got %d", got)
	}
}

func TestTracker_Distribution(t *testing.T) {
	tracker := NewTracker()
	tracker.Observe(models.RegimeState{Regime: "uptrend", Confidence: 1})
	tracker.Observe(models.RegimeState{Regime: "downtrend", Confidence: 1})

	dist := tracker.Distribution()
	if math.Abs(dist["uptrend"]-0.5) > 1e-9 || math.Abs(dist["downtrend"]-0.5) > 1e-9 {
		t.Errorf("unexpected distribution: %v", dist)
	}
}

func TestTracker_AverageConfidence(t *testing.T) {
	tracker := NewTracker()
	tracker.Observe(models.RegimeState{Regime: "ranging", Confidence: 0.4})
	tracker.Observe(models.RegimeState{Regime: "ranging", Confidence: 0.8})

	if got := tracker.AverageConfidence(Ranging); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected average confidence 0.6, got %.3f", got)
	}
	if got := tracker.AverageConfidence(Uptrend); got != 0 {
		t.Errorf("unobserved regime should average 0, got %.3f", got)
	}
}
