package pool

import (
	"context"
	"time"

	"github.com/google/uuid"

	"HedgePool/internal/state"
)

// PositionInfo is a read-model view of one position, marked to the
// current oracle price.
type PositionInfo struct {
	ID                uint64
	Owner             uuid.UUID
	Margin            int64
	NotionalExposure  int64
	EntryPrice        int64
	EntryTime         time.Time
	Leverage          uint16
	Active            bool
	PnL               int64
	MarginRatioBps    int64
	Liquidatable      bool
	AccumulatedReward int64
}

// PoolStats is the aggregate view.
type PoolStats struct {
	TotalMargin       int64
	TotalExposure     int64
	ActiveHedgerCount uint64
	OpenPositions     int
	Paused            bool
	Sequence          int64
	CurrentBlock      uint64
}

// RewardView is the per-hedger claimable view.
type RewardView struct {
	PendingReward   int64
	ClaimableMargin int64
}

// GetPosition returns the marked view of a position. Reads run through
// the pool loop, so they never observe a half-applied mutation. Served
// while paused.
func (p *HedgingPool) GetPosition(ctx context.Context, owner uuid.UUID, positionID uint64) (PositionInfo, error) {
	var info PositionInfo
	var opErr error

	err := p.do(ctx, func() {
		pos, err := p.ledger.GetActiveOwned(owner, positionID)
		if err != nil {
			opErr = err
			return
		}

		price, err := p.readPrice()
		if err != nil {
			opErr = err
			return
		}

		info = p.positionInfo(pos, price)
	})
	if err != nil {
		return PositionInfo{}, err
	}
	return info, opErr
}

// HedgerPositions lists the hedger's active positions marked to the
// current price.
func (p *HedgingPool) HedgerPositions(ctx context.Context, owner uuid.UUID) ([]PositionInfo, error) {
	var infos []PositionInfo
	var opErr error

	err := p.do(ctx, func() {
		price, err := p.readPrice()
		if err != nil {
			opErr = err
			return
		}

		ids := p.ledger.ActiveIDs(owner)
		infos = make([]PositionInfo, 0, len(ids))
		for _, id := range ids {
			infos = append(infos, p.positionInfo(p.ledger.Get(id), price))
		}
	})
	if err != nil {
		return nil, err
	}
	return infos, opErr
}

// Stats returns the aggregate view.
func (p *HedgingPool) Stats(ctx context.Context) (PoolStats, error) {
	var stats PoolStats

	err := p.do(ctx, func() {
		stats = PoolStats{
			TotalMargin:       p.aggregates.TotalMargin,
			TotalExposure:     p.aggregates.TotalExposure,
			ActiveHedgerCount: p.aggregates.ActiveHedgerCount,
			OpenPositions:     len(p.ledger.ActivePositions()),
			Paused:            p.paused,
			Sequence:          p.sequence,
			CurrentBlock:      p.blocks.CurrentBlock(),
		}
	})
	if err != nil {
		return PoolStats{}, err
	}
	return stats, nil
}

// Rewards returns what the hedger could claim right now.
func (p *HedgingPool) Rewards(ctx context.Context, hedger uuid.UUID) (RewardView, error) {
	var view RewardView

	err := p.do(ctx, func() {
		block := p.blocks.CurrentBlock()
		view = RewardView{
			PendingReward:   p.rewards.PendingRewards(hedger, p.ledger, p.rates, block),
			ClaimableMargin: p.rewards.ClaimableMargin(hedger),
		}
	})
	if err != nil {
		return RewardView{}, err
	}
	return view, nil
}

// Commitment returns the outstanding commitment on a position, if any.
func (p *HedgingPool) Commitment(ctx context.Context, hedger uuid.UUID, positionID uint64) (state.LiquidationCommitment, bool, error) {
	var c state.LiquidationCommitment
	var found bool

	err := p.do(ctx, func() {
		if got, ok := p.commitments.Get(hedger, positionID); ok {
			c = *got
			found = true
		}
	})
	if err != nil {
		return state.LiquidationCommitment{}, false, err
	}
	return c, found, nil
}

func (p *HedgingPool) positionInfo(pos *state.Position, price int64) PositionInfo {
	return PositionInfo{
		ID:                pos.ID,
		Owner:             pos.Owner,
		Margin:            pos.Margin,
		NotionalExposure:  pos.NotionalExposure,
		EntryPrice:        pos.EntryPrice,
		EntryTime:         pos.EntryTime,
		Leverage:          pos.Leverage,
		Active:            pos.Active,
		PnL:               p.pnl.PnL(pos, price),
		MarginRatioBps:    p.pnl.MarginRatio(pos, price),
		Liquidatable:      p.pnl.IsLiquidatable(pos, price, p.risk.LiquidationThresholdBps),
		AccumulatedReward: pos.AccumulatedReward,
	}
}
