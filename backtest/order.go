package backtest

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

const (
	// lotPrecision is the decimal precision positions are rounded to.
	lotPrecision = 3
	// minNotional is the exchange minimum order notional in quote currency.
	minNotional = 10.0
)

// TakeProfitLevel is one rung of a take profit ladder.
type TakeProfitLevel struct {
	Price float64
	// Fraction of the original position size closed when the level fills.
	Fraction float64
}

// Order represents a simulated order awaiting a fill.
type Order struct {
	ID          string
	GapID       string
	Market      string
	Direction   shared.Direction
	EntryMethod shared.EntryMethod
	LimitPrice  float64
	StopLoss    float64
	// TakeProfits holds one level for a plain target or up to three for a ladder;
	// fractions sum to one.
	TakeProfits   []TakeProfitLevel
	Size          float64
	CreatedTime   time.Time
	ExpiryCandles int
}

// NewOrder initializes a new order.
func NewOrder(gapID string, market string, direction shared.Direction, entryMethod shared.EntryMethod,
	limitPrice float64, stopLoss float64, takeProfits []TakeProfitLevel, size float64,
	created time.Time, expiryCandles int) *Order {
	return &Order{
		ID:            uuid.New().String(),
		GapID:         gapID,
		Market:        market,
		Direction:     direction,
		EntryMethod:   entryMethod,
		LimitPrice:    limitPrice,
		StopLoss:      stopLoss,
		TakeProfits:   takeProfits,
		Size:          size,
		CreatedTime:   created,
		ExpiryCandles: expiryCandles,
	}
}

// Risk returns the initial risked amount in quote currency.
func (o *Order) Risk() float64 {
	return abs(o.LimitPrice-o.StopLoss) * o.Size
}

// Trade represents the immutable result of one simulated order. It is appended to
// the run's trade log and never mutated afterward.
type Trade struct {
	ID         string            `json:"id"`
	GapID      string            `json:"gap_id"`
	Market     string            `json:"market"`
	Direction  string            `json:"direction"`
	EntryPrice float64           `json:"entry_price"`
	EntryTime  time.Time         `json:"entry_time"`
	ExitPrice  float64           `json:"exit_price"`
	ExitTime   time.Time         `json:"exit_time"`
	ExitReason shared.ExitReason `json:"exit_reason"`
	Size       float64           `json:"size"`
	PNL        float64           `json:"pnl"`
	PNLPercent float64           `json:"pnl_pct"`
	Fees       float64           `json:"fees"`
	// Risk is the amount risked at entry, used for R multiple expectancy.
	Risk float64 `json:"risk"`
}

// positionSize sizes a position so the stop distance risks the configured balance
// fraction, rounded to lot precision and bumped to the exchange minimum notional
// when necessary.
func positionSize(balance float64, riskFraction float64, entry float64, stop float64) float64 {
	distance := abs(entry - stop)
	if distance == 0 || entry <= 0 {
		return 0
	}

	size := roundToLot(balance * riskFraction / distance)
	if size*entry < minNotional {
		size = ceilToLot(minNotional / entry)
	}

	return size
}

// roundToLot rounds the provided size to the exchange lot precision.
func roundToLot(size float64) float64 {
	const factor = 1e3 // 10^lotPrecision
	return float64(int64(size*factor+0.5)) / factor
}

// ceilToLot rounds the provided size up to the exchange lot precision. The
// minimum notional bump uses it: rounding to nearest can land the bumped size
// back below the floor at large entry prices.
func ceilToLot(size float64) float64 {
	const factor = 1e3 // 10^lotPrecision
	return math.Ceil(size*factor) / factor
}
