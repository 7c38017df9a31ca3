package state

import (
	"fmt"

	"github.com/google/uuid"
)

// PoolAggregates are the process-wide counters kept consistent by every
// position mutation. ActiveHedgerCount counts hedgers that have ever
// opened a position: it increments on a hedger's first open and never
// decrements (the source system's accounting, kept deliberately).
type PoolAggregates struct {
	TotalMargin       int64
	TotalExposure     int64
	ActiveHedgerCount uint64

	seenHedgers map[uuid.UUID]bool
}

func NewPoolAggregates() *PoolAggregates {
	return &PoolAggregates{
		seenHedgers: make(map[uuid.UUID]bool),
	}
}

// AddPosition records a freshly opened position's contributions.
func (pa *PoolAggregates) AddPosition(owner uuid.UUID, margin, exposure int64) {
	pa.TotalMargin += margin
	pa.TotalExposure += exposure

	if !pa.seenHedgers[owner] {
		pa.seenHedgers[owner] = true
		pa.ActiveHedgerCount++
	}
}

// RemovePosition zeroes a terminated position's contributions.
func (pa *PoolAggregates) RemovePosition(margin, exposure int64) {
	pa.TotalMargin -= margin
	pa.TotalExposure -= exposure

	if pa.TotalMargin < 0 || pa.TotalExposure < 0 {
		panic(fmt.Sprintf("FATAL: pool aggregates underflow: margin=%d exposure=%d",
			pa.TotalMargin, pa.TotalExposure))
	}
}

// AdjustMargin applies a margin delta for an open position.
func (pa *PoolAggregates) AdjustMargin(delta int64) {
	pa.TotalMargin += delta
	if pa.TotalMargin < 0 {
		panic(fmt.Sprintf("FATAL: total margin underflow: %d", pa.TotalMargin))
	}
}

// CheckAgainst recomputes the sums over active positions and returns an
// error on drift. Used by invariant checks and tests, not by the hot path.
func (pa *PoolAggregates) CheckAgainst(ledger *PositionLedger) error {
	var margin, exposure int64
	for _, pos := range ledger.ActivePositions() {
		margin += pos.Margin
		exposure += pos.NotionalExposure
	}

	if margin != pa.TotalMargin {
		return fmt.Errorf("total margin drift: aggregate=%d, sum=%d", pa.TotalMargin, margin)
	}
	if exposure != pa.TotalExposure {
		return fmt.Errorf("total exposure drift: aggregate=%d, sum=%d", pa.TotalExposure, exposure)
	}
	return nil
}

// SeenHedgers returns the recorded hedger set (for snapshots).
func (pa *PoolAggregates) SeenHedgers() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(pa.seenHedgers))
	for h := range pa.seenHedgers {
		out = append(out, h)
	}
	return out
}

// RestoreHedger re-seats one seen hedger from a snapshot.
func (pa *PoolAggregates) RestoreHedger(h uuid.UUID) {
	if !pa.seenHedgers[h] {
		pa.seenHedgers[h] = true
		pa.ActiveHedgerCount++
	}
}
