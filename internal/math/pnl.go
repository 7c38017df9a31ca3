package math

// MarkPnL computes mark-to-market profit/loss for a hedging position.
//
// filledVolume is the quote-asset volume fixed at open (margin * leverage
// valued at the entry price). The backing units bought at open are
// filledVolume / entryPrice; their value at currentPrice is
// filledVolume * currentPrice / entryPrice. The design is short-biased:
// a price increase is a loss for the hedger.
//
//	pnl = filledVolume - filledVolume * currentPrice / entryPrice
//
// Degenerate inputs: zero volume or zero current price produce zero PnL.
// Zero entry price means no backing units exist behind the volume, which
// collapses to a total loss of -filledVolume. PnL magnitude never exceeds
// filledVolume in either direction: the gain bound holds by construction
// since prices are non-negative, and the loss is clamped at -filledVolume,
// the full value of the backing. A price beyond twice the entry costs the
// hedger their exposure, not more.
func MarkPnL(filledVolume, entryPrice, currentPrice int64) int64 {
	if filledVolume == 0 || currentPrice == 0 {
		return 0
	}
	if entryPrice == 0 {
		return -filledVolume
	}

	markValue := MulDiv(filledVolume, currentPrice, entryPrice, RoundHalfEven)
	return Max(filledVolume-markValue, -filledVolume)
}

// MarginRatioBps returns (margin + pnl) / notional in basis points,
// clamped to >= 0. A position with no exposure reports MaxInt64 so it can
// never be flagged unhealthy.
func MarginRatioBps(margin, pnl, notional int64) int64 {
	if notional == 0 {
		return MaxInt64
	}

	equity := margin + pnl
	if equity <= 0 {
		return 0
	}

	return MulDiv(equity, BpsScale, notional, RoundHalfEven)
}

// IsLiquidatable reports whether a position's margin ratio has fallen
// below the liquidation threshold. Degenerate inputs (no exposure, zero
// price) never trigger liquidation.
func IsLiquidatable(margin, notional, entryPrice, currentPrice, thresholdBps int64) bool {
	if notional == 0 || currentPrice == 0 {
		return false
	}

	pnl := MarkPnL(notional, entryPrice, currentPrice)
	return MarginRatioBps(margin, pnl, notional) < thresholdBps
}
