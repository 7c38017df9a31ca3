package state

import (
	fpmath "HedgePool/internal/math"
)

// PnLEngine computes mark-to-market views and the settlement economics
// of closing or liquidating a position. It holds no state of its own;
// every method is a pure function of its inputs.
type PnLEngine struct{}

func NewPnLEngine() *PnLEngine {
	return &PnLEngine{}
}

// PnL returns the position's unrealized profit/loss at currentPrice.
// The filled volume is the notional exposure fixed at open.
func (pe *PnLEngine) PnL(pos *Position, currentPrice int64) int64 {
	return fpmath.MarkPnL(pos.NotionalExposure, pos.EntryPrice, currentPrice)
}

// MarginRatio returns (margin + pnl) / notional in bps, clamped to >= 0.
func (pe *PnLEngine) MarginRatio(pos *Position, currentPrice int64) int64 {
	pnl := pe.PnL(pos, currentPrice)
	return fpmath.MarginRatioBps(pos.Margin, pnl, pos.NotionalExposure)
}

// IsLiquidatable reports whether the position's ratio has fallen below
// thresholdBps. Degenerate inputs never trigger liquidation.
func (pe *PnLEngine) IsLiquidatable(pos *Position, currentPrice, thresholdBps int64) bool {
	return fpmath.IsLiquidatable(
		pos.Margin,
		pos.NotionalExposure,
		pos.EntryPrice,
		currentPrice,
		thresholdBps,
	)
}

// CloseSettlement computes the economics of a voluntary close: equity is
// margin plus unrealized PnL floored at zero, and the exit fee is taken
// from the equity paid out.
func (pe *PnLEngine) CloseSettlement(pos *Position, currentPrice, exitFeeBps int64) (pnl, payout, fee int64) {
	pnl = pe.PnL(pos, currentPrice)
	equity := fpmath.Max(pos.Margin+pnl, 0)
	payout, fee = fpmath.ApplyFeeBps(equity, exitFeeBps)
	return pnl, payout, fee
}

// LiquidationSplit divides a liquidated position's equity between the
// liquidator reward (penaltyBps of remaining margin) and the remainder
// owed back to the owner.
func (pe *PnLEngine) LiquidationSplit(pos *Position, currentPrice, penaltyBps int64) (equity, reward, remainder int64) {
	pnl := pe.PnL(pos, currentPrice)
	equity = fpmath.Max(pos.Margin+pnl, 0)
	reward = fpmath.Min(fpmath.BpsOf(pos.Margin, penaltyBps), equity)
	remainder = equity - reward
	return equity, reward, remainder
}
