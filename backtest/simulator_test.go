package backtest

import (
	"testing"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/peterldowns/testy/assert"
)

func testSimulator(feesEnabled bool) *Simulator {
	return NewSimulator(&SimulatorConfig{
		MakerFeeRate:   0.001,
		TakerFeeRate:   0.002,
		FeesEnabled:    feesEnabled,
		MaxHoldCandles: 10,
	})
}

func TestSimulateTakeProfit(t *testing.T) {
	sim := testSimulator(true)
	candles := series(t, [][4]float64{
		{100, 102, 98, 100},
		{100, 111, 99, 108},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 95,
		[]TakeProfitLevel{{Price: 110, Fraction: 1}}, 1, candles[0].Date, 4)

	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.TakeProfit)
	assert.Equal(t, trade.EntryPrice, float64(100))
	assert.Equal(t, trade.ExitPrice, float64(110))
	assert.Equal(t, trade.ExitTime, candles[1].Date)

	// Market entry pays taker, take profit exit pays maker.
	wantFees := 100*1*0.002 + 110*1*0.001
	assert.Equal(t, trade.Fees, wantFees)
	assert.Equal(t, trade.PNL, 10-wantFees)
	assert.Equal(t, trade.Risk, float64(5))
}

func TestSimulateStopBeforeTarget(t *testing.T) {
	// A candle spanning both the stop and the target resolves to the stop: the
	// intrabar path is unknowable, so ties go against the position.
	sim := testSimulator(false)
	candles := series(t, [][4]float64{
		{100, 102, 98, 100},
		{100, 112, 94, 105},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 95,
		[]TakeProfitLevel{{Price: 110, Fraction: 1}}, 1, candles[0].Date, 4)

	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.StopLoss)
	assert.Equal(t, trade.ExitPrice, float64(95))
	assert.Equal(t, trade.PNL, float64(-5))
	assert.Equal(t, trade.Fees, float64(0))
}

func TestSimulateLimitFill(t *testing.T) {
	sim := testSimulator(true)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 101, 97, 99},
		{99, 111, 98, 110},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.Breakout, 98, 95,
		[]TakeProfitLevel{{Price: 110, Fraction: 1}}, 1, candles[0].Date, 4)

	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.TakeProfit)
	// The fill lands on the second candle; exit resolution starts after it.
	assert.Equal(t, trade.EntryTime, candles[1].Date)
	assert.Equal(t, trade.ExitTime, candles[2].Date)

	// Limit entry pays maker on both legs.
	wantFees := 98*1*0.001 + 110*1*0.001
	assert.Equal(t, trade.Fees, wantFees)
}

func TestSimulateExpiry(t *testing.T) {
	sim := testSimulator(true)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 102, 99.5, 101},
		{101, 103, 100, 102},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.Breakout, 98, 95,
		[]TakeProfitLevel{{Price: 110, Fraction: 1}}, 1, candles[0].Date, 2)

	// The limit never trades within its two candle window.
	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.Expired)
	assert.Equal(t, trade.PNL, float64(0))
	assert.Equal(t, trade.Fees, float64(0))
	assert.Equal(t, trade.EntryTime, order.CreatedTime)
	assert.Equal(t, trade.ExitTime, candles[1].Date)
}

func TestSimulateLadderBreakevenStop(t *testing.T) {
	sim := testSimulator(false)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 103.5, 98, 103},
		{103, 104, 99.5, 101},
	})

	levels := []TakeProfitLevel{
		{Price: 103, Fraction: 0.5},
		{Price: 105, Fraction: 0.25},
		{Price: 109, Fraction: 0.25},
	}
	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 94,
		levels, 1, candles[0].Date, 4)

	// The first rung fills and ratchets the stop to breakeven; the pullback then
	// stops the remainder out flat.
	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.StopLoss)
	assert.Equal(t, trade.ExitPrice, float64(100))
	assert.Equal(t, trade.PNL, (103-100.0)*0.5)
}

func TestSimulateLadderSecondRungRatchet(t *testing.T) {
	sim := testSimulator(false)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 103.5, 98, 103},
		{103, 105.5, 101, 105},
		{105, 106, 102, 103},
	})

	levels := []TakeProfitLevel{
		{Price: 103, Fraction: 0.5},
		{Price: 105, Fraction: 0.25},
		{Price: 109, Fraction: 0.25},
	}
	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 94,
		levels, 1, candles[0].Date, 4)

	// Two rungs fill, moving the stop to the first rung's price; the remainder
	// stops out there.
	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.StopLoss)
	assert.Equal(t, trade.ExitPrice, float64(103))

	wantPNL := (103-100.0)*0.5 + (105-100.0)*0.25 + (103-100.0)*0.25
	assert.Equal(t, trade.PNL, wantPNL)
}

func TestSimulateLadderFullClose(t *testing.T) {
	sim := testSimulator(false)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 110, 99.5, 109.5},
	})

	levels := []TakeProfitLevel{
		{Price: 103, Fraction: 0.5},
		{Price: 105, Fraction: 0.25},
		{Price: 109, Fraction: 0.25},
	}
	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 94,
		levels, 1, candles[0].Date, 4)

	// One candle sweeps all three rungs.
	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.TakeProfit)
	assert.Equal(t, trade.ExitPrice, float64(109))

	wantPNL := (103-100.0)*0.5 + (105-100.0)*0.25 + (109-100.0)*0.25
	assert.Equal(t, trade.PNL, wantPNL)
}

func TestSimulateTimeout(t *testing.T) {
	sim := NewSimulator(&SimulatorConfig{
		TakerFeeRate:   0.002,
		FeesEnabled:    false,
		MaxHoldCandles: 3,
	})
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 102, 99, 101},
		{101, 103, 100, 102},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Long, shared.ImmediateClose, 100, 95,
		[]TakeProfitLevel{{Price: 120, Fraction: 1}}, 1, candles[0].Date, 4)

	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.Timeout)
	assert.Equal(t, trade.ExitPrice, float64(102))
	assert.Equal(t, trade.ExitTime, candles[2].Date)
	assert.Equal(t, trade.PNL, float64(2))
}

func TestSimulateShortOrder(t *testing.T) {
	sim := testSimulator(false)
	candles := series(t, [][4]float64{
		{100, 101, 99, 100},
		{99, 100, 89, 90},
	})

	order := NewOrder("gap-1", "BTCUSDT", shared.Short, shared.ImmediateClose, 100, 105,
		[]TakeProfitLevel{{Price: 90, Fraction: 1}}, 2, candles[0].Date, 4)

	trade := sim.Simulate(order, candles, 0)
	assert.Equal(t, trade.ExitReason, shared.TakeProfit)
	assert.Equal(t, trade.ExitPrice, float64(90))
	assert.Equal(t, trade.PNL, float64(20))
	assert.Equal(t, trade.Risk, float64(10))
}

func TestRoundToLotAndPositionSize(t *testing.T) {
	// Lot rounding keeps three decimals.
	assert.Equal(t, roundToLot(0.12345), 0.123)
	assert.Equal(t, roundToLot(0.9996), 1.0)

	// Risking 1% of 10000 with a 50 point stop distance buys 2 units.
	size := positionSize(10000, 0.01, 1000, 950)
	assert.Equal(t, size, float64(2))

	// A tiny account is bumped to the exchange minimum notional.
	size = positionSize(100, 0.01, 1000, 950)
	assert.Equal(t, size*1000 >= minNotional, true)

	// At a large entry price the risk sized lot rounds to zero; the bump must
	// round up so the notional clears the floor instead of re-rounding below it.
	size = positionSize(100, 0.001, 70000, 69300)
	assert.Equal(t, size, 0.001)
	assert.Equal(t, size*70000 >= minNotional, true)

	// Ceiling rounding keeps three decimals.
	assert.Equal(t, ceilToLot(0.1421), 0.143)

	// Degenerate inputs size to zero.
	assert.Equal(t, positionSize(10000, 0.01, 1000, 1000), float64(0))
}
