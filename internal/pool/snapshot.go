package pool

import (
	"context"

	"github.com/google/uuid"

	"HedgePool/internal/state"
)

// Snapshot is the serializable image of the pool's in-memory state.
// On warm restart the pool is rebuilt from the latest snapshot; a final
// snapshot on graceful shutdown keeps the image current, and a gap to
// the event log is detected and surfaced at startup.
type Snapshot struct {
	Sequence       int64
	StateHash      [32]byte
	NextPositionID uint64

	Positions   []state.Position
	Commitments []state.LiquidationCommitment

	BankedReward    map[uuid.UUID]int64
	ClaimableMargin map[uuid.UUID]int64
	SeenHedgers     []uuid.UUID

	Fees  state.FeeConfig
	Risk  state.RiskConfig
	Rates state.InterestRates

	Liquidators []uuid.UUID
	Paused      bool
}

// Snapshot captures the current state through the pool loop, so the image
// is consistent with a single point in the event sequence.
func (p *HedgingPool) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot

	err := p.do(ctx, func() {
		positions := p.ledger.AllPositions()
		posCopies := make([]state.Position, 0, len(positions))
		for _, pos := range positions {
			posCopies = append(posCopies, *pos)
		}

		commitments := p.commitments.All()
		comCopies := make([]state.LiquidationCommitment, 0, len(commitments))
		for _, c := range commitments {
			comCopies = append(comCopies, *c)
		}

		banked, claimable := p.rewards.Balances()

		liquidators := make([]uuid.UUID, 0, len(p.liquidators))
		for l := range p.liquidators {
			liquidators = append(liquidators, l)
		}

		snap = &Snapshot{
			Sequence:        p.sequence,
			StateHash:       p.hasher.GetPrevHash(),
			NextPositionID:  p.ledger.NextID(),
			Positions:       posCopies,
			Commitments:     comCopies,
			BankedReward:    banked,
			ClaimableMargin: claimable,
			SeenHedgers:     p.aggregates.SeenHedgers(),
			Fees:            p.fees,
			Risk:            p.risk,
			Rates:           p.rates,
			Liquidators:     liquidators,
			Paused:          p.paused,
		}

		if p.metrics != nil {
			p.metrics.SnapshotTaken.Inc()
			p.metrics.SnapshotLastSeq.Set(float64(p.sequence))
		}
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore rebuilds the pool from a snapshot. Must be called before Run
// starts; it touches state without going through the command loop.
func (p *HedgingPool) Restore(snap *Snapshot) {
	p.sequence = snap.Sequence
	p.hasher.SetPrevHash(snap.StateHash)

	for i := range snap.Positions {
		pos := snap.Positions[i]
		p.ledger.Restore(&pos, snap.NextPositionID)
		if pos.Active {
			p.aggregates.AddPosition(pos.Owner, pos.Margin, pos.NotionalExposure)
		}
	}

	// Hedgers whose every position has terminated still count.
	for _, h := range snap.SeenHedgers {
		p.aggregates.RestoreHedger(h)
	}

	for i := range snap.Commitments {
		c := snap.Commitments[i]
		p.commitments.Restore(&c)
	}

	p.rewards.RestoreBalances(snap.BankedReward, snap.ClaimableMargin)

	p.fees = snap.Fees
	p.risk = snap.Risk
	p.rates = snap.Rates

	for _, l := range snap.Liquidators {
		p.liquidators[l] = true
	}
	p.paused = snap.Paused
}
