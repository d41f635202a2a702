package gap

import (
	"math"
	"slices"
	"time"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

// dedupPriceTolerance is the band tolerance within which two detections describe
// the same gap.
const dedupPriceTolerance = 0.01

// Pool tracks gaps detected on one timeframe through their lifecycle. Active gaps
// await resolution; resolved gaps are eligible for setups until invalidated or
// traded. Invalidated and traded gaps move to the retired collection: they can
// never produce a setup again, but their identities keep anchoring dedup so a
// trailing window rescan cannot resurrect the formation as a fresh gap.
type Pool struct {
	active   []*Gap
	resolved []*Gap
	retired  []*Gap
}

// NewPool initializes a new gap pool.
func NewPool() *Pool {
	return &Pool{
		active:   []*Gap{},
		resolved: []*Gap{},
		retired:  []*Gap{},
	}
}

// Add inserts the provided gap unless an equivalent gap is already tracked.
// Gaps are value identities: equal sentiment, timeframe, formation time and band
// (within tolerance) describe the same entity, whatever its lifecycle stage.
func (p *Pool) Add(g *Gap) bool {
	for _, pool := range [][]*Gap{p.active, p.resolved, p.retired} {
		for idx := range pool {
			if p.equivalent(pool[idx], g) {
				return false
			}
		}
	}

	p.active = append(p.active, g)
	return true
}

// equivalent checks whether two gaps describe the same formation.
func (p *Pool) equivalent(a *Gap, b *Gap) bool {
	return a.Sentiment == b.Sentiment &&
		a.Timeframe == b.Timeframe &&
		a.FormedTime.Equal(b.FormedTime) &&
		math.Abs(a.Top-b.Top) < dedupPriceTolerance &&
		math.Abs(a.Bottom-b.Bottom) < dedupPriceTolerance
}

// Update advances every active gap using the provided closed candle. Newly
// resolved gaps move from the active to the resolved collection: their stop
// determining excursions are frozen and they await a setup. Invalidated gaps
// are retired. Returns the number of newly resolved gaps.
func (p *Pool) Update(candle *shared.Candlestick, closeTime time.Time, mode shared.StrategyMode) int {
	var newlyResolved int

	retained := p.active[:0]
	for _, g := range p.active {
		transition := g.Update(candle, closeTime, mode)
		switch {
		case transition.NewlyResolved:
			p.resolved = append(p.resolved, g)
			newlyResolved++
		case g.Invalidated:
			p.retired = append(p.retired, g)
		default:
			retained = append(retained, g)
		}
	}
	p.active = retained

	return newlyResolved
}

// Resolved returns a snapshot of the resolved gaps eligible for setups.
func (p *Pool) Resolved() []*Gap {
	snapshot := make([]*Gap, len(p.resolved))
	copy(snapshot, p.resolved)
	return snapshot
}

// Invalidate marks the provided gap invalidated and retires it.
func (p *Pool) Invalidate(g *Gap) {
	g.Invalidated = true
	p.retire(g)
}

// MarkTraded records that the gap produced its one filled trade and retires it.
func (p *Pool) MarkTraded(g *Gap) {
	g.HasFilledTrade = true
	p.retire(g)
}

// retire removes the provided gap from the live collections and parks it in the
// retired collection, where it serves only as a dedup anchor.
func (p *Pool) retire(g *Gap) {
	p.active = slices.DeleteFunc(p.active, func(other *Gap) bool { return other == g })
	p.resolved = slices.DeleteFunc(p.resolved, func(other *Gap) bool { return other == g })
	p.retired = append(p.retired, g)
}

// ActiveCount returns the number of gaps still awaiting resolution.
func (p *Pool) ActiveCount() int {
	return len(p.active)
}

// ResolvedCount returns the number of gaps eligible for setups.
func (p *Pool) ResolvedCount() int {
	return len(p.resolved)
}
