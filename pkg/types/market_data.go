package types

import "time"

// DailyBar is one day's OHLCV record for a symbol. Bars handed to the
// analyzer and the simulator must be gap-filled and sorted by date ascending.
type DailyBar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Regime classifies where a symbol sits in the pullback-breakout cycle.
type Regime int

const (
	RegimeNeutral Regime = iota
	RegimeTracking
	RegimeBuyTriggered
)

// MarshalJSON renders the regime as its string form.
func (r Regime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r Regime) String() string {
	switch r {
	case RegimeNeutral:
		return "NEUTRAL"
	case RegimeTracking:
		return "TRACKING"
	case RegimeBuyTriggered:
		return "BUY_TRIGGERED"
	default:
		return "UNKNOWN"
	}
}

// Analysis is the result of replaying a symbol's full bar history through
// the pullback-breakout state machine. The window fields are a live snapshot
// against the 20 bars immediately preceding the most recent bar, regardless
// of the regime the replay ended in.
type Analysis struct {
	Symbol            string
	Regime            Regime
	TriggerDate       time.Time // most recent low touch that armed tracking
	BuyTriggerDate    time.Time // most recent breakout above the window high
	CurrentPrice      float64
	WindowHigh        float64
	WindowLow         float64
	DistanceToTrigger float64 // percent below the current window high
}
