package pool

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"

	"HedgePool/internal/event"
	"HedgePool/internal/state"
)

// LiquidationResult reports an executed reveal.
type LiquidationResult struct {
	PositionID uint64
	MarkPrice  int64
	Equity     int64
	Reward     int64
	Remainder  int64
}

// CommitLiquidation records a salted commitment against a position.
// Liquidator role only; at most one live commitment per position. The
// commit is price-blind, eligibility is checked at reveal.
func (p *HedgingPool) CommitLiquidation(
	ctx context.Context,
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	commitHash [32]byte,
) error {
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("commit_liquidation", "paused")
			opErr = state.ErrPoolPaused
			return
		}
		if !p.liquidators[caller] {
			p.reject("commit_liquidation", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}

		pos := p.ledger.Get(positionID)
		if pos == nil || !pos.Active || pos.Owner != hedger {
			opErr = state.ErrPositionOwnerMismatch
			return
		}

		block := p.blocks.CurrentBlock()
		c, err := p.commitments.Commit(caller, hedger, positionID, commitHash, block)
		if err != nil {
			p.reject("commit_liquidation", "commitment_active")
			opErr = err
			return
		}

		if p.metrics != nil {
			p.metrics.CommitmentsOpened.Inc()
		}

		p.emit(event.EventTypeLiquidationCommitted, event.LiquidationCommitted{
			Hedger:     hedger,
			PositionID: positionID,
			Committer:  caller,
			CommitHash: hex.EncodeToString(c.CommitHash[:]),
			Block:      block,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// LiquidateHedger is the reveal. After the cooldown, the committer
// presents the salt; eligibility is re-checked at the current oracle
// price. The reward is liquidationPenaltyBps of the remaining margin,
// capped at equity; the remainder becomes margin the owner can claim.
// A failed reveal never burns the commitment.
func (p *HedgingPool) LiquidateHedger(
	ctx context.Context,
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
	salt []byte,
) (LiquidationResult, error) {
	var res LiquidationResult
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("liquidate", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		price, err := p.readPrice()
		if err != nil {
			p.reject("liquidate", "oracle")
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()

		pos := p.ledger.Get(positionID)
		if pos == nil || !pos.Active || pos.Owner != hedger {
			opErr = state.ErrNoValidCommitment
			return
		}

		// Validate the reveal before checking health so a bogus caller
		// learns nothing beyond "no valid commitment".
		if err := p.commitments.Validate(caller, hedger, positionID, salt, block); err != nil {
			p.reject("liquidate", "no_commitment")
			opErr = err
			return
		}

		if !p.pnl.IsLiquidatable(pos, price, p.risk.LiquidationThresholdBps) {
			p.reject("liquidate", "healthy")
			opErr = state.ErrPositionHealthy
			return
		}

		equity, reward, remainder := p.pnl.LiquidationSplit(pos, price, p.risk.LiquidationPenaltyBps)

		if reward > 0 {
			if err := p.custody.TransferOut(ctx, caller, reward); err != nil {
				p.reject("liquidate", "custody")
				opErr = err
				return
			}
		}

		if _, err := p.commitments.Consume(caller, hedger, positionID, salt, block); err != nil {
			panic("FATAL: commitment vanished between validate and consume")
		}

		p.terminate(pos, state.TerminationLiquidation, block)
		p.rewards.CreditMargin(hedger, remainder)

		if p.metrics != nil {
			p.metrics.LiquidationsExecuted.Inc()
			p.metrics.LiquidationRewardPaid.Add(float64(reward))
		}

		res = LiquidationResult{
			PositionID: positionID,
			MarkPrice:  price,
			Equity:     equity,
			Reward:     reward,
			Remainder:  remainder,
		}

		p.emit(event.EventTypeLiquidationExecuted, event.LiquidationExecuted{
			Hedger:     hedger,
			PositionID: positionID,
			Liquidator: caller,
			MarkPrice:  price,
			Equity:     equity,
			Reward:     reward,
			Remainder:  remainder,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return LiquidationResult{}, err
	}
	return res, opErr
}

// CancelLiquidationCommitment withdraws a live commitment; committer only.
func (p *HedgingPool) CancelLiquidationCommitment(
	ctx context.Context,
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
) error {
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("cancel_commitment", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		block := p.blocks.CurrentBlock()
		if _, err := p.commitments.Cancel(caller, hedger, positionID, block); err != nil {
			p.reject("cancel_commitment", "invalid")
			opErr = err
			return
		}

		if p.metrics != nil {
			p.metrics.CommitmentsCancelled.Inc()
		}

		p.emit(event.EventTypeCommitmentCancelled, event.CommitmentCancelled{
			Hedger:     hedger,
			PositionID: positionID,
			Committer:  caller,
		}, nil, block, p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// ClearExpiredLiquidationCommitment purges a commitment whose expiry
// window has passed without a reveal. Callable by anyone.
func (p *HedgingPool) ClearExpiredLiquidationCommitment(
	ctx context.Context,
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
) error {
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("clear_commitment", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		block := p.blocks.CurrentBlock()
		if _, err := p.commitments.ClearExpired(hedger, positionID, block); err != nil {
			p.reject("clear_commitment", "invalid")
			opErr = err
			return
		}

		if p.metrics != nil {
			p.metrics.CommitmentsExpired.Inc()
		}

		p.emit(event.EventTypeCommitmentExpired, event.CommitmentExpired{
			Hedger:     hedger,
			PositionID: positionID,
			ClearedBy:  caller,
		}, nil, block, p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}
