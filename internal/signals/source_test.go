package signals

import (
	"testing"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

func TestReduceStrongestPerType(t *testing.T) {
	input := []models.Signal{
		{Type: "RSI", Value: "Oversold Entry", Strength: 62},
		{Type: "MACD", Value: "Bullish Cross", Strength: 70},
		{Type: "RSI", Value: "Oversold Extreme", Strength: 88},
	}

	reduced := ReduceStrongestPerType(input)

	if len(reduced) != 2 {
		t.Fatalf("expected 2 signals after reduction, got %d", len(reduced))
	}
	if reduced[0].Type != "RSI" || reduced[0].Strength != 88 {
		t.Errorf("expected strongest RSI first, got %s/%.0f", reduced[0].Type, reduced[0].Strength)
	}
	if reduced[1].Type != "MACD" {
		t.Errorf("expected MACD second, got %s", reduced[1].Type)
	}
}

func TestReduceStrongestPerType_TiesKeepFirst(t *testing.T) {
	input := []models.Signal{
		{Type: "RSI", Value: "first", Strength: 70},
		{Type: "RSI", Value: "second", Strength: 70},
	}

	reduced := ReduceStrongestPerType(input)

	if len(reduced) != 1 || reduced[0].Value != "first" {
		t.Errorf("equal strengths should keep the first instance, got %+v", reduced)
	}
}

func TestReduceStrongestPerType_ShortInputsPassThrough(t *testing.T) {
	if got := ReduceStrongestPerType(nil); got != nil {
		t.Errorf("nil input should pass through, got %v", got)
	}

	one := []models.Signal{{Type: "ADX", Strength: 50}}
	if got := ReduceStrongestPerType(one); len(got) != 1 {
		t.Errorf("single signal should pass through, got %v", got)
	}
}
