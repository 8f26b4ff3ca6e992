package regime

import (
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Regime represents the coarse market-behavior classification consumed by
// the backtest loop and the conviction scorer. Classification itself is an
// external collaborator; this package only interprets its output.
type Regime int

const (
	Unknown Regime = iota
	Uptrend
	Downtrend
	Ranging
)

func (r Regime) String() string {
	switch r {
	case Uptrend:
		return "uptrend"
	case Downtrend:
		return "downtrend"
	case Ranging:
		return "ranging"
	default:
		return "unknown"
	}
}

// Parse maps a regime label to its enum value, defaulting to Unknown for
// anything unrecognized.
func Parse(label string) Regime {
	switch label {
	case "uptrend", "trending_up", "bull":
		return Uptrend
	case "downtrend", "trending_down", "bear":
		return Downtrend
	case "ranging", "sideways", "chop":
		return Ranging
	default:
		return Unknown
	}
}

// IsDirectional reports whether the regime has a clear directional bias.
func (r Regime) IsDirectional() bool {
	return r == Uptrend || r == Downtrend
}

// UnknownState is the fallback snapshot used when the regime source fails
// for a candle: the loop continues with zero confidence rather than aborts.
func UnknownState() models.RegimeState {
	return models.RegimeState{Regime: Unknown.String(), Confidence: 0}
}
