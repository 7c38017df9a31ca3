package pool

import (
	"context"

	"github.com/google/uuid"

	"HedgePool/internal/event"
	fpmath "HedgePool/internal/math"
	"HedgePool/internal/state"
)

// MaxBatchSize bounds ClosePositionsBatch so a single command can never
// monopolize the pool loop.
const MaxBatchSize = 50

// OpenResult reports the economics of a successful open.
type OpenResult struct {
	PositionID uint64
	Margin     int64 // net of entry fee
	Notional   int64
	EntryPrice int64
	EntryFee   int64
}

// MarginResult reports the outcome of a margin change.
type MarginResult struct {
	PositionID     uint64
	NewMargin      int64
	MarginRatioBps int64
	Fee            int64
}

// CloseResult reports the settlement of a voluntary close.
type CloseResult struct {
	PositionID uint64
	ClosePrice int64
	PnL        int64
	Payout     int64
	ExitFee    int64
}

// BatchCloseResult reports an all-or-nothing batch close.
type BatchCloseResult struct {
	PositionIDs []uint64
	ClosePrice  int64
	TotalPayout int64
	TotalFee    int64
}

// OpenPosition pulls grossMargin of collateral from the hedger and opens
// a leveraged position at the current oracle price. The entry fee stays
// in the pool; notional is the net margin times leverage.
func (p *HedgingPool) OpenPosition(
	ctx context.Context,
	owner uuid.UUID,
	grossMargin int64,
	leverage uint16,
) (OpenResult, error) {
	var res OpenResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("open_position", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("open_position", "oracle")
			opErr = err
			return
		}

		// Full validation up front: the custody pull below must never
		// need unwinding. The engine re-runs the same checks.
		if grossMargin <= 0 {
			opErr = state.ErrInvalidAmount
			return
		}
		if leverage < 1 || leverage > p.risk.MaxLeverage {
			opErr = state.ErrLeverageTooHigh
			return
		}
		netMargin, _ := fpmath.ApplyFeeBps(grossMargin, p.fees.EntryFeeBps)
		if netMargin <= 0 {
			opErr = state.ErrInsufficientMargin
			return
		}
		notional, ok := fpmath.MulCheck(netMargin, int64(leverage))
		if !ok {
			opErr = state.ErrInvalidAmount
			return
		}
		if fpmath.RatioBps(netMargin, notional) < p.risk.MinMarginRatioBps {
			opErr = state.ErrMarginRatioTooLow
			return
		}

		if err := p.custody.TransferIn(ctx, owner, grossMargin); err != nil {
			p.reject("open_position", "custody")
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()
		ts := p.blocks.BlockTime()

		pos, entryFee, err := p.margin.OpenPosition(
			owner, grossMargin, leverage, p.fees, p.risk, price, ts, block)
		if err != nil {
			panic("FATAL: open failed after custody pull: " + err.Error())
		}

		res = OpenResult{
			PositionID: pos.ID,
			Margin:     pos.Margin,
			Notional:   pos.NotionalExposure,
			EntryPrice: pos.EntryPrice,
			EntryFee:   entryFee,
		}

		p.emit(event.EventTypePositionOpened, event.PositionOpened{
			PositionID: pos.ID,
			Owner:      owner,
			Margin:     pos.Margin,
			Notional:   pos.NotionalExposure,
			EntryPrice: pos.EntryPrice,
			Leverage:   pos.Leverage,
			EntryFee:   entryFee,
		}, pos, block, ts)
	})
	if err != nil {
		return OpenResult{}, err
	}
	return res, opErr
}

// AddMargin pulls amount of collateral from the hedger and tops up the
// position, net of the margin fee. Blocked while a live liquidation
// commitment sits on the position, and rejected when the post-add ratio
// would still sit below the configured minimum.
func (p *HedgingPool) AddMargin(
	ctx context.Context,
	owner uuid.UUID,
	positionID uint64,
	amount int64,
) (MarginResult, error) {
	var res MarginResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("add_margin", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("add_margin", "oracle")
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()

		// Pre-validate so the custody pull never needs unwinding.
		if amount <= 0 {
			opErr = state.ErrInvalidAmount
			return
		}
		pos, err := p.ledger.GetActiveOwned(owner, positionID)
		if err != nil {
			opErr = err
			return
		}
		if p.commitments.HasLive(owner, positionID, block) {
			p.reject("add_margin", "commitment_active")
			opErr = state.ErrCommitmentActive
			return
		}
		netAmount, _ := fpmath.ApplyFeeBps(amount, p.fees.MarginFeeBps)
		if netAmount <= 0 {
			opErr = state.ErrInvalidAmount
			return
		}
		pnl := fpmath.MarkPnL(pos.NotionalExposure, pos.EntryPrice, price)
		if fpmath.MarginRatioBps(pos.Margin+netAmount, pnl, pos.NotionalExposure) < p.risk.MinMarginRatioBps {
			p.reject("add_margin", "margin_ratio")
			opErr = state.ErrMarginRatioTooLow
			return
		}

		if err := p.custody.TransferIn(ctx, owner, amount); err != nil {
			p.reject("add_margin", "custody")
			opErr = err
			return
		}

		p.rewards.Checkpoint(pos, p.rates, block)

		newRatio, fee, err := p.margin.AddMargin(owner, positionID, amount, price, p.fees, p.risk, block)
		if err != nil {
			panic("FATAL: add margin failed after custody pull: " + err.Error())
		}

		res = MarginResult{
			PositionID:     positionID,
			NewMargin:      pos.Margin,
			MarginRatioBps: newRatio,
			Fee:            fee,
		}

		p.emit(event.EventTypeMarginAdded, event.MarginAdded{
			PositionID:     positionID,
			Owner:          owner,
			Amount:         amount,
			Fee:            fee,
			NewMargin:      pos.Margin,
			MarginRatioBps: newRatio,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return MarginResult{}, err
	}
	return res, opErr
}

// RemoveMargin withdraws collateral from the position back to the hedger.
// The resulting ratio must stay at or above the configured minimum, and a
// live commitment blocks the withdrawal just like it blocks a top-up.
func (p *HedgingPool) RemoveMargin(
	ctx context.Context,
	owner uuid.UUID,
	positionID uint64,
	amount int64,
) (MarginResult, error) {
	var res MarginResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("remove_margin", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("remove_margin", "oracle")
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()

		// Pre-validate; the custody payout below must never be unwound.
		if amount <= 0 {
			opErr = state.ErrInvalidAmount
			return
		}
		pos, err := p.ledger.GetActiveOwned(owner, positionID)
		if err != nil {
			opErr = err
			return
		}
		if p.commitments.HasLive(owner, positionID, block) {
			p.reject("remove_margin", "commitment_active")
			opErr = state.ErrCommitmentActive
			return
		}
		if amount >= pos.Margin {
			opErr = state.ErrInvalidAmount
			return
		}
		pnl := fpmath.MarkPnL(pos.NotionalExposure, pos.EntryPrice, price)
		if fpmath.MarginRatioBps(pos.Margin-amount, pnl, pos.NotionalExposure) < p.risk.MinMarginRatioBps {
			opErr = state.ErrMarginRatioTooLow
			return
		}

		if err := p.custody.TransferOut(ctx, owner, amount); err != nil {
			p.reject("remove_margin", "custody")
			opErr = err
			return
		}

		p.rewards.Checkpoint(pos, p.rates, block)

		newRatio, err := p.margin.RemoveMargin(owner, positionID, amount, price, p.risk, block)
		if err != nil {
			panic("FATAL: remove margin failed after custody payout: " + err.Error())
		}

		res = MarginResult{
			PositionID:     positionID,
			NewMargin:      pos.Margin,
			MarginRatioBps: newRatio,
		}

		p.emit(event.EventTypeMarginRemoved, event.MarginRemoved{
			PositionID:     positionID,
			Owner:          owner,
			Amount:         amount,
			NewMargin:      pos.Margin,
			MarginRatioBps: newRatio,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return MarginResult{}, err
	}
	return res, opErr
}

// ClosePosition settles and terminates an active position at the current
// oracle price. The payout is margin plus PnL floored at zero, net of
// the exit fee; accrued rewards stay banked for a later claim.
func (p *HedgingPool) ClosePosition(
	ctx context.Context,
	owner uuid.UUID,
	positionID uint64,
) (CloseResult, error) {
	var res CloseResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("close_position", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("close_position", "oracle")
			opErr = err
			return
		}

		pos, err := p.ledger.GetActiveOwned(owner, positionID)
		if err != nil {
			opErr = err
			return
		}

		pnl, payout, fee := p.pnl.CloseSettlement(pos, price, p.fees.ExitFeeBps)

		if payout > 0 {
			if err := p.custody.TransferOut(ctx, owner, payout); err != nil {
				p.reject("close_position", "custody")
				opErr = err
				return
			}
		}

		block := p.blocks.CurrentBlock()
		p.terminate(pos, state.TerminationClose, block)

		res = CloseResult{
			PositionID: positionID,
			ClosePrice: price,
			PnL:        pnl,
			Payout:     payout,
			ExitFee:    fee,
		}

		p.emit(event.EventTypePositionClosed, event.PositionClosed{
			PositionID: positionID,
			Owner:      owner,
			ClosePrice: price,
			PnL:        pnl,
			Payout:     payout,
			ExitFee:    fee,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return CloseResult{}, err
	}
	return res, opErr
}

// ClosePositionsBatch closes the first maxCount of the given positions
// atomically: any invalid id in the processed prefix aborts the whole
// batch before any custody movement or state mutation. MaxBatchSize caps
// the processed count regardless of maxCount.
func (p *HedgingPool) ClosePositionsBatch(
	ctx context.Context,
	owner uuid.UUID,
	positionIDs []uint64,
	maxCount int,
) (BatchCloseResult, error) {
	var res BatchCloseResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("close_batch", "paused")
			opErr = state.ErrPoolPaused
			return
		}
		if len(positionIDs) == 0 || maxCount <= 0 {
			opErr = state.ErrInvalidAmount
			return
		}
		ids := positionIDs
		if len(ids) > maxCount {
			ids = ids[:maxCount]
		}
		if len(ids) > MaxBatchSize {
			p.reject("close_batch", "batch_size")
			opErr = state.ErrBatchSizeTooLarge
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("close_batch", "oracle")
			opErr = err
			return
		}

		// Validate every id before touching anything. Duplicates would
		// terminate the same position twice, so they fail the batch.
		seen := make(map[uint64]bool, len(ids))
		positions := make([]*state.Position, 0, len(ids))
		var totalPayout, totalFee int64
		for _, id := range ids {
			if seen[id] {
				opErr = state.ErrInvalidAmount
				return
			}
			seen[id] = true

			pos, err := p.ledger.GetActiveOwned(owner, id)
			if err != nil {
				opErr = err
				return
			}
			positions = append(positions, pos)

			_, payout, fee := p.pnl.CloseSettlement(pos, price, p.fees.ExitFeeBps)
			totalPayout += payout
			totalFee += fee
		}

		if totalPayout > 0 {
			if err := p.custody.TransferOut(ctx, owner, totalPayout); err != nil {
				p.reject("close_batch", "custody")
				opErr = err
				return
			}
		}

		block := p.blocks.CurrentBlock()
		for _, pos := range positions {
			p.terminate(pos, state.TerminationClose, block)
		}

		res = BatchCloseResult{
			PositionIDs: append([]uint64(nil), ids...),
			ClosePrice:  price,
			TotalPayout: totalPayout,
			TotalFee:    totalFee,
		}

		p.emit(event.EventTypePositionsBatchClosed, event.PositionsBatchClosed{
			Owner:       owner,
			PositionIDs: res.PositionIDs,
			ClosePrice:  price,
			TotalPayout: totalPayout,
			TotalFee:    totalFee,
		}, nil, block, p.blocks.BlockTime())
	})
	if err != nil {
		return BatchCloseResult{}, err
	}
	return res, opErr
}
