package shared

import "fmt"

// Direction represents the direction of a trade.
type Direction int

const (
	Long Direction = iota
	Short
)

// String stringifies the provided direction.
func (d *Direction) String() string {
	switch *d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// StrategyMode represents the gap resolution strategy being simulated.
type StrategyMode int

const (
	// FailedGap trades rejections: price enters a gap and closes back outside it,
	// suggesting a trade opposite to the gap's polarity.
	FailedGap StrategyMode = iota
	// HeldGap trades continuations: price enters a gap and closes back inside it,
	// suggesting a trade matching the gap's polarity.
	HeldGap
)

// String stringifies the provided strategy mode.
func (m *StrategyMode) String() string {
	switch *m {
	case FailedGap:
		return "failed"
	case HeldGap:
		return "held"
	default:
		return "unknown"
	}
}

// ParseStrategyMode parses a strategy mode from the provided string.
func ParseStrategyMode(str string) (StrategyMode, error) {
	switch str {
	case "failed":
		return FailedGap, nil
	case "held":
		return HeldGap, nil
	default:
		return 0, fmt.Errorf("unknown strategy mode: %s", str)
	}
}

// EntryMethod represents how an order entry price is derived from a resolved gap.
type EntryMethod int

const (
	// ImmediateClose enters with a market order at the resolving candle's close.
	ImmediateClose EntryMethod = iota
	// LowerTimeframeGap rests a limit order at the edge of a fresh lower timeframe gap.
	LowerTimeframeGap
	// Breakout rests a limit order slightly beyond the resolution price.
	Breakout
)

// String stringifies the provided entry method.
func (e *EntryMethod) String() string {
	switch *e {
	case ImmediateClose:
		return "immediate_close"
	case LowerTimeframeGap:
		return "lower_tf_gap"
	case Breakout:
		return "breakout"
	default:
		return "unknown"
	}
}

// ParseEntryMethod parses an entry method from the provided string.
func ParseEntryMethod(str string) (EntryMethod, error) {
	switch str {
	case "immediate_close":
		return ImmediateClose, nil
	case "lower_tf_gap":
		return LowerTimeframeGap, nil
	case "breakout":
		return Breakout, nil
	default:
		return 0, fmt.Errorf("unknown entry method: %s", str)
	}
}

// TakeProfitMethod represents how a take profit target is derived.
type TakeProfitMethod int

const (
	// Liquidity targets the nearest pool of resting liquidity (recent swing high/low).
	Liquidity TakeProfitMethod = iota
	// FixedRR targets a fixed multiple of the risked distance.
	FixedRR
)

// String stringifies the provided take profit method.
func (t *TakeProfitMethod) String() string {
	switch *t {
	case Liquidity:
		return "liquidity"
	case FixedRR:
		return "fixed_rr"
	default:
		return "unknown"
	}
}

// ParseTakeProfitMethod parses a take profit method from the provided string.
func ParseTakeProfitMethod(str string) (TakeProfitMethod, error) {
	switch str {
	case "liquidity":
		return Liquidity, nil
	case "fixed_rr":
		return FixedRR, nil
	default:
		return 0, fmt.Errorf("unknown take profit method: %s", str)
	}
}

// ExitReason represents the terminal state of a simulated trade.
type ExitReason int

const (
	TakeProfit ExitReason = iota
	StopLoss
	Timeout
	Expired
)

// String stringifies the provided exit reason.
func (r ExitReason) String() string {
	switch r {
	case TakeProfit:
		return "TAKE_PROFIT"
	case StopLoss:
		return "STOP_LOSS"
	case Timeout:
		return "TIMEOUT"
	case Expired:
		return "EXPIRED"
	default:
		return "unknown"
	}
}

// MarshalJSON stringifies the exit reason for serialized trade logs.
func (r ExitReason) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}
